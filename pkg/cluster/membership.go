// Package cluster tracks which nodes form the cluster and which of them
// still need a full copy of the local store.
//
// Membership is defined by an operator, never discovered. Every definition
// replaces the previous one: peers that remain keep their sync state,
// peers that disappear are forgotten, and peers that are new are flagged
// for a full transfer. The very first definition flags nobody, since an
// empty node has nothing worth sending and would otherwise push its empty
// state to everyone.
package cluster
