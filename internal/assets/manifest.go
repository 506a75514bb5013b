package assets

import (
	"encoding/json"
	"fmt"
)

// ProceduralCollectionID names the built-in collection that needs no files.
const ProceduralCollectionID = "procedural"

// CollectionRef is one entry of the collections index.
type CollectionRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ManifestURL string `json:"manifestUrl,omitempty"`
}

// CollectionManifest describes a scene collection: an LOD chain of meshes,
// highest detail first, and an optional environment map.
type CollectionManifest struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	LODs        []string `json:"lods"`
	Environment string   `json:"environment,omitempty"`

	InitialCameraPosition *[3]float32 `json:"initialCameraPosition,omitempty"`
	InitialControlTarget  *[3]float32 `json:"initialControlTarget,omitempty"`
}

// DefaultCollections is the index used when none can be loaded.
func DefaultCollections() []CollectionRef {
	return []CollectionRef{{ID: ProceduralCollectionID, DisplayName: "Procedural Demo"}}
}

func decodeIndex(data []byte) ([]CollectionRef, error) {
	var refs []CollectionRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("decode collections index: %w", err)
	}
	return refs, nil
}

func decodeManifest(data []byte) (*CollectionManifest, error) {
	var m CollectionManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.DisplayName == "" {
		m.DisplayName = m.Name
	}
	return &m, nil
}
