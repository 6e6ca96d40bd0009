// Package loop provides natural loop detection and loop normalisation.
//
// Loops are found from back edges of the dominator tree: an edge p → h is a
// back edge if h dominates p, and the body of the loop headed by h is every
// block that reaches p without passing through h. Loops that share a header
// are the same loop. Loops are nested by containment, and every block belongs
// to at most one innermost loop.
//
// Passes that move code out of a loop need somewhere to put it.
// InsertPreheaders gives each loop a dedicated preheader block, the only
// predecessor of the header from outside the loop.
package loop
