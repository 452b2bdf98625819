// Package advisory defines the contract with the optional text-generation
// service that turns a BMS snapshot into a short diagnostic.
//
// The advisor only reads snapshots. A failed request never changes the
// session it was built from.
package advisory
