// Package audit implements the hash-chained, append-only audit trail
// (spec.md §4.C "Audit Chain"). Entries may only be appended; no update or
// delete operation exists. Each entry's hash covers its own content and the
// previous entry's hash, and a binary Merkle tree over the leaf hashes
// supports proof-of-inclusion export without replaying the full chain.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/regulatory-governance/core/domain/governance"
)

// Store is a per-tenant hash-chained audit trail.
type Store struct {
	mu       sync.Mutex
	tenantID string
	entries  []governance.ImmutableAuditEntry
}

// NewStore creates an empty audit store scoped to tenantID.
func NewStore(tenantID string) *Store {
	return &Store{tenantID: tenantID}
}

// lastHash returns the hash of the last entry, or the genesis hash if empty.
// Caller must hold mu.
func (s *Store) lastHash() string {
	if len(s.entries) == 0 {
		return governance.GenesisHash
	}
	return s.entries[len(s.entries)-1].EntryHash
}

// Append adds entry to the chain, computing its sequence number, previous
// hash, and entry hash. This is the only way to add entries.
func (s *Store) Append(ctx context.Context, entry governance.AuditEntry) (governance.ImmutableAuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.TenantID == "" {
		entry.TenantID = s.tenantID
	}

	immutable := governance.ImmutableAuditEntry{
		AuditEntry:     entry.Clone(),
		SequenceNumber: len(s.entries),
		PreviousHash:   s.lastHash(),
	}
	hash, err := entryHash(immutable)
	if err != nil {
		return governance.ImmutableAuditEntry{}, fmt.Errorf("audit: hash entry: %w", err)
	}
	immutable.EntryHash = hash

	s.entries = append(s.entries, immutable)
	return immutable.Clone(), nil
}

// EntryCount returns the total number of entries in the chain.
func (s *Store) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// GetEntry returns the entry at the given sequence number, or nil if out of range.
func (s *Store) GetEntry(sequenceNumber int) *governance.ImmutableAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sequenceNumber < 0 || sequenceNumber >= len(s.entries) {
		return nil
	}
	out := s.entries[sequenceNumber].Clone()
	return &out
}

// GetEntryByID returns the entry with the given ID, or nil if not found.
func (s *Store) GetEntryByID(entryID string) *governance.ImmutableAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			out := e.Clone()
			return &out
		}
	}
	return nil
}

// GetEntries returns entries matching filters, most recent first.
func (s *Store) GetEntries(filters governance.AuditFilters) []governance.ImmutableAuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]governance.ImmutableAuditEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filters.Matches(e) {
			matched = append(matched, e.Clone())
		}
	}
	if filters.Limit != nil && *filters.Limit >= 0 && *filters.Limit < len(matched) {
		matched = matched[:*filters.Limit]
	}
	return matched
}

// VerifyChain checks hash-chain integrity over [startSequence, endSequence]
// (defaults to the full chain), returning the first broken link if any.
func (s *Store) VerifyChain(startSequence, endSequence *int) governance.ChainVerificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return governance.ChainVerificationResult{IsValid: true}
	}

	start := 0
	if startSequence != nil {
		start = *startSequence
	}
	end := len(s.entries) - 1
	if endSequence != nil {
		end = *endSequence
	}

	if start < 0 || end >= len(s.entries) || start > end {
		return governance.ChainVerificationResult{
			IsValid:      false,
			TotalEntries: len(s.entries),
			ErrorMessage: fmt.Sprintf("invalid sequence range: %d to %d", start, end),
		}
	}

	verified := 0
	expectedPrevious := governance.GenesisHash
	if start > 0 {
		expectedPrevious = s.entries[start-1].EntryHash
	}

	for i := start; i <= end; i++ {
		entry := s.entries[i]
		if entry.PreviousHash != expectedPrevious {
			idx := i
			return governance.ChainVerificationResult{
				IsValid:              false,
				TotalEntries:         end - start + 1,
				VerifiedEntries:      verified,
				FirstInvalidSequence: &idx,
				ErrorMessage:         fmt.Sprintf("chain broken at sequence %d: previous_hash mismatch", i),
			}
		}
		hash, err := entryHash(entry)
		if err != nil || hash != entry.EntryHash {
			idx := i
			return governance.ChainVerificationResult{
				IsValid:              false,
				TotalEntries:         end - start + 1,
				VerifiedEntries:      verified,
				FirstInvalidSequence: &idx,
				ErrorMessage:         fmt.Sprintf("hash verification failed at sequence %d: content tampered", i),
			}
		}
		expectedPrevious = entry.EntryHash
		verified++
	}

	leaves := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		leaves = append(leaves, s.entries[i].EntryHash)
	}

	return governance.ChainVerificationResult{
		IsValid:         true,
		TotalEntries:    end - start + 1,
		VerifiedEntries: verified,
		MerkleRoot:      computeMerkleRoot(leaves),
	}
}

// GenerateMerkleProof builds a Merkle inclusion proof for the entry with
// the given ID, over the full current chain.
func (s *Store) GenerateMerkleProof(entryID string) *governance.MerkleProof {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := -1
	for i, e := range s.entries {
		if e.ID == entryID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	leaves := make([]string, len(s.entries))
	for i, e := range s.entries {
		leaves[i] = e.EntryHash
	}

	return &governance.MerkleProof{
		EntryID:    entryID,
		EntryHash:  leaves[index],
		ProofPath:  buildMerkleProofPath(leaves, index),
		MerkleRoot: computeMerkleRoot(leaves),
	}
}

// Export returns a contiguous range of entries plus their Merkle root,
// verifiable externally without access to the live store.
func (s *Store) Export(startSequence, endSequence *int) governance.AuditExport {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if startSequence != nil {
		start = *startSequence
	}
	end := len(s.entries) - 1
	if endSequence != nil {
		end = *endSequence
	}
	if end < 0 {
		end = 0
	}

	if len(s.entries) == 0 || start > end {
		return governance.AuditExport{
			MerkleRoot:         governance.GenesisHash,
			ChainStartSequence: start,
			ChainEndSequence:   end,
			TenantID:           s.tenantID,
		}
	}

	if start < 0 {
		start = 0
	}
	if end >= len(s.entries) {
		end = len(s.entries) - 1
	}

	entries := make([]governance.ImmutableAuditEntry, 0, end-start+1)
	leaves := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		entries = append(entries, s.entries[i].Clone())
		leaves = append(leaves, s.entries[i].EntryHash)
	}

	return governance.AuditExport{
		Entries:            entries,
		MerkleRoot:         computeMerkleRoot(leaves),
		ChainStartSequence: start,
		ChainEndSequence:   end,
		TenantID:           s.tenantID,
	}
}

// VerifyExport verifies an exported audit range's integrity without access
// to the originating store — the chain linkage, each entry's own hash, and
// the Merkle root over the exported leaves.
func VerifyExport(export governance.AuditExport) governance.ChainVerificationResult {
	if len(export.Entries) == 0 {
		return governance.ChainVerificationResult{IsValid: true, MerkleRoot: export.MerkleRoot}
	}

	verified := 0
	expectedPrevious := export.Entries[0].PreviousHash

	for i, entry := range export.Entries {
		if i > 0 && entry.PreviousHash != expectedPrevious {
			seq := entry.SequenceNumber
			return governance.ChainVerificationResult{
				IsValid:              false,
				TotalEntries:         len(export.Entries),
				VerifiedEntries:      verified,
				FirstInvalidSequence: &seq,
				ErrorMessage:         fmt.Sprintf("chain broken at sequence %d", entry.SequenceNumber),
			}
		}
		hash, err := entryHash(entry)
		if err != nil || hash != entry.EntryHash {
			seq := entry.SequenceNumber
			return governance.ChainVerificationResult{
				IsValid:              false,
				TotalEntries:         len(export.Entries),
				VerifiedEntries:      verified,
				FirstInvalidSequence: &seq,
				ErrorMessage:         fmt.Sprintf("hash verification failed at sequence %d", entry.SequenceNumber),
			}
		}
		expectedPrevious = entry.EntryHash
		verified++
	}

	leaves := make([]string, len(export.Entries))
	for i, e := range export.Entries {
		leaves[i] = e.EntryHash
	}
	if computeMerkleRoot(leaves) != export.MerkleRoot {
		return governance.ChainVerificationResult{
			IsValid:         false,
			TotalEntries:    len(export.Entries),
			VerifiedEntries: verified,
			ErrorMessage:    "merkle root mismatch",
		}
	}

	return governance.ChainVerificationResult{
		IsValid:         true,
		TotalEntries:    len(export.Entries),
		VerifiedEntries: verified,
		MerkleRoot:      export.MerkleRoot,
	}
}

// entryHash computes the SHA-256 hex digest over an entry's content,
// excluding EntryHash itself. A canonical JSON encoding (Go maps already
// serialize with sorted keys) keeps the digest reproducible.
func entryHash(e governance.ImmutableAuditEntry) (string, error) {
	material := struct {
		ID             string         `json:"id"`
		TenantID       string         `json:"tenant_id"`
		Actor          string         `json:"actor"`
		ActorType      string         `json:"actor_type"`
		Action         string         `json:"action"`
		EntityType     string         `json:"entity_type"`
		EntityID       string         `json:"entity_id"`
		PreviousState  map[string]any `json:"previous_state"`
		NewState       map[string]any `json:"new_state"`
		Rationale      string         `json:"rationale"`
		TimestampUnix  int64          `json:"timestamp_unix_nano"`
		SequenceNumber int            `json:"sequence_number"`
		PreviousHash   string         `json:"previous_hash"`
	}{
		ID:             e.ID,
		TenantID:       e.TenantID,
		Actor:          e.Actor,
		ActorType:      string(e.ActorType),
		Action:         e.Action,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		PreviousState:  e.PreviousState,
		NewState:       e.NewState,
		Rationale:      e.Rationale,
		TimestampUnix:  e.Timestamp.UnixNano(),
		SequenceNumber: e.SequenceNumber,
		PreviousHash:   e.PreviousHash,
	}
	b, err := json.Marshal(material)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// computeMerkleRoot builds a binary hash tree bottom-up over leaves,
// duplicating the last node at each level with an odd count, and returns
// the root. Returns the genesis hash for an empty leaf set.
func computeMerkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return governance.GenesisHash
	}
	level := append([]string(nil), leaves...)
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			var combined string
			if i+1 < len(level) {
				combined = level[i] + level[i+1]
			} else {
				combined = level[i] + level[i]
			}
			sum := sha256.Sum256([]byte(combined))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
	}
	return level[0]
}

// buildMerkleProofPath walks the same tree-building process as
// computeMerkleRoot, recording the sibling hash and side at each level for
// the leaf at targetIndex.
func buildMerkleProofPath(leaves []string, targetIndex int) []governance.MerkleProofStep {
	var path []governance.MerkleProofStep
	level := append([]string(nil), leaves...)
	index := targetIndex

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		nextIndex := index / 2

		for i := 0; i < len(level); i += 2 {
			var combined string
			if i+1 < len(level) {
				left, right := level[i], level[i+1]
				if i == index {
					path = append(path, governance.MerkleProofStep{SiblingHash: right, Side: governance.MerkleRight})
				} else if i+1 == index {
					path = append(path, governance.MerkleProofStep{SiblingHash: left, Side: governance.MerkleLeft})
				}
				combined = left + right
			} else {
				combined = level[i] + level[i]
				if i == index {
					path = append(path, governance.MerkleProofStep{SiblingHash: level[i], Side: governance.MerkleRight})
				}
			}
			sum := sha256.Sum256([]byte(combined))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
		index = nextIndex
	}
	return path
}
