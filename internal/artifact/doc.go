// Package artifact inspects package files produced by a build.
//
// The copied-out artifact is opened and its control data is checked against
// the target's expectations, so a packaging script that silently produced
// the wrong package fails the run instead of depositing a bad file.
package artifact
