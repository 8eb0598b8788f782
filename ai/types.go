package ai

import "github.com/poiesic/exemplar/core"

// RelationshipLabels defines the valid classifications a relationship
// detector may assign to a correspondent. Detectors are prompted with this
// list and their output is normalized against it.
var RelationshipLabels = relationshipLabels()

func relationshipLabels() []string {
	labels := make([]string, len(core.KnownRelationships))
	for i, r := range core.KnownRelationships {
		labels[i] = string(r)
	}
	return labels
}
