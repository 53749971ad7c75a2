package main

// handlers holds the routerDeps every handler method dispatches through.
type handlers struct {
	deps routerDeps
}
