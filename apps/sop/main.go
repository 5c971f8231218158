//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// The sop command runs the non-interactive sum-of-products protocol
// locally, benchmarks it, and distributes the dealer's bundles to
// the nodes over TCP.
package main

func main() {
	Execute()
}
