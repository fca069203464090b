// Package connectors contains the source adapter implementations.
// Each subpackage adapts one source family (ordinals, arweave, solana,
// local) to the driven.SourceAdapter port.
package connectors
