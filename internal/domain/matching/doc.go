// Package matching finds atom-to-atom correspondences between a query and a
// target molecular graph.
//
// Two modes are supported. EXACT enumerates subgraph monomorphisms: every
// query atom is paired and every query bond lands on a target bond. MCS keeps
// the largest partial mappings (maximum common substructure), optionally
// within a tolerance of the best size.
//
// The search is an iterative depth-first traversal over an explicit frame
// stack. For each frame the next query atom is the lowest-id undecided atom
// adjacent to the mapped region, or the lowest-id undecided atom when the
// region has no frontier. Candidates are tested in a fixed order:
//
//  1. label compatibility through the session LabelRegistry
//  2. atom stereo (when enabled)
//  3. adjacency, bond order and bond stereo against mapped neighbors
//  4. look-ahead on unmapped neighbor counts (EXACT only)
//
// The first-level branches run as independent tasks, each with a private
// candidate state. Results are merged in branch order, deduplicated, pruned of
// subsumed mappings and ranked by size.
//
// Graphs reach the engine through the Graph interface; see package molecule
// for the in-memory adapter and the molfile reader.
package matching

//Personal.AI order the ending
