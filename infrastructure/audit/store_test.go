package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sampleEntry(action, entityID string) governance.AuditEntry {
	return governance.AuditEntry{
		ID:         entityID + "-" + action,
		Timestamp:  time.Now(),
		TenantID:   "tenant-a",
		Actor:      "alice",
		ActorType:  governance.ActorTypeHuman,
		Action:     action,
		EntityType: "issue",
		EntityID:   entityID,
		NewState:   map[string]any{"status": "open"},
	}
}

func TestStore_AppendChainsHashes(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")

	first, err := s.Append(ctx, sampleEntry("create", "issue-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.PreviousHash != governance.GenesisHash {
		t.Fatalf("expected genesis hash, got %s", first.PreviousHash)
	}

	second, err := s.Append(ctx, sampleEntry("escalate", "issue-1"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.PreviousHash != first.EntryHash {
		t.Fatalf("expected previous hash %s, got %s", first.EntryHash, second.PreviousHash)
	}
	if second.SequenceNumber != 1 {
		t.Fatalf("expected sequence 1, got %d", second.SequenceNumber)
	}
}

func TestStore_VerifyChainValid(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")
	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, sampleEntry("create", "issue-1")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	result := s.VerifyChain(nil, nil)
	if !result.IsValid {
		t.Fatalf("expected valid chain, got error: %s", result.ErrorMessage)
	}
	if result.VerifiedEntries != 5 || result.TotalEntries != 5 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.MerkleRoot == "" {
		t.Fatal("expected non-empty merkle root")
	}
}

func TestStore_VerifyChainDetectsTampering(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")
	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, sampleEntry("create", "issue-1")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	s.entries[1].Action = "TAMPERED"

	result := s.VerifyChain(nil, nil)
	if result.IsValid {
		t.Fatal("expected tampering to be detected")
	}
	if result.FirstInvalidSequence == nil || *result.FirstInvalidSequence != 1 {
		t.Fatalf("expected first invalid sequence 1, got %+v", result.FirstInvalidSequence)
	}
}

func TestStore_VerifyChainDetectsBrokenLink(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")
	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, sampleEntry("create", "issue-1")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	s.entries[2].PreviousHash = "deadbeef"

	result := s.VerifyChain(nil, nil)
	if result.IsValid {
		t.Fatal("expected broken link to be detected")
	}
	if result.FirstInvalidSequence == nil || *result.FirstInvalidSequence != 2 {
		t.Fatalf("expected first invalid sequence 2, got %+v", result.FirstInvalidSequence)
	}
}

func TestStore_MerkleProofVerifiesInclusion(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")
	var ids []string
	for i := 0; i < 7; i++ {
		e, err := s.Append(ctx, sampleEntry("create", "issue-1"))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, e.ID)
	}

	for _, id := range ids {
		proof := s.GenerateMerkleProof(id)
		if proof == nil {
			t.Fatalf("expected proof for %s", id)
		}
		if root := recomputeRootFromProof(proof.EntryHash, proof.ProofPath); root != proof.MerkleRoot {
			t.Fatalf("proof for %s did not recompute to merkle root: got %s want %s", id, root, proof.MerkleRoot)
		}
	}
}

func recomputeRootFromProof(leafHash string, path []governance.MerkleProofStep) string {
	current := leafHash
	for _, step := range path {
		if step.Side == governance.MerkleRight {
			current = sha256Hex(current + step.SiblingHash)
		} else {
			current = sha256Hex(step.SiblingHash + current)
		}
	}
	return current
}

func TestStore_ExportAndVerify(t *testing.T) {
	ctx := context.Background()
	s := NewStore("tenant-a")
	for i := 0; i < 4; i++ {
		if _, err := s.Append(ctx, sampleEntry("create", "issue-1")); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	export := s.Export(nil, nil)
	if len(export.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(export.Entries))
	}

	result := VerifyExport(export)
	if !result.IsValid {
		t.Fatalf("expected valid export, got error: %s", result.ErrorMessage)
	}
}

func TestStore_ExportEmptyChain(t *testing.T) {
	s := NewStore("tenant-a")
	export := s.Export(nil, nil)
	if len(export.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(export.Entries))
	}
	if export.MerkleRoot != governance.GenesisHash {
		t.Fatalf("expected genesis hash, got %s", export.MerkleRoot)
	}
}

func TestRegistry_IsolatesTenants(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	a := reg.For("tenant-a")
	b := reg.For("tenant-b")

	if _, err := a.Append(ctx, sampleEntry("create", "issue-1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if a.EntryCount() != 1 {
		t.Fatalf("expected 1 entry in tenant-a, got %d", a.EntryCount())
	}
	if b.EntryCount() != 0 {
		t.Fatalf("expected 0 entries in tenant-b, got %d", b.EntryCount())
	}
	if reg.For("tenant-a") != a {
		t.Fatal("expected For to return the same store instance")
	}
}
