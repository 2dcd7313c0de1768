package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogCollectionsAndWorkflow(t *testing.T) {
	catalog := &Catalog{ID: "landsat-c2/workflow-publish/LC08_L2SP_2024"}

	assert.Equal(t, "landsat-c2", catalog.Collections())
	assert.Equal(t, "publish", catalog.Workflow())
}

func TestCatalogMultiCollectionID(t *testing.T) {
	catalog := &Catalog{ID: "sentinel-2/grd/workflow-cog-archive/S2B_MSIL1C"}

	assert.Equal(t, "sentinel-2/grd", catalog.Collections())
	assert.Equal(t, "cog-archive", catalog.Workflow())
}

func TestCatalogUnconventionalID(t *testing.T) {
	catalog := &Catalog{ID: "just-an-opaque-key"}

	assert.Empty(t, catalog.Collections())
	assert.Empty(t, catalog.Workflow())
}

func TestErrorDescriptorString(t *testing.T) {
	desc := ErrorDescriptor{Type: "InvalidInput", Message: "missing required asset"}

	assert.Equal(t, "InvalidInput: missing required asset", desc.String())
}

func TestNewStateRecordDerivesAttributes(t *testing.T) {
	catalog := &Catalog{ID: "naip/workflow-mosaic/m_38077"}

	record := NewStateRecord(catalog, "arn:aws:states:us-west-2:123:execution:mosaic:abc")

	assert.Equal(t, catalog.ID, record.StateKey)
	assert.Equal(t, "naip", record.Collections)
	assert.Equal(t, "mosaic", record.Workflow)
	assert.Equal(t, RecordStateProcessing, record.Status)
	assert.False(t, record.CreatedAt.IsZero())
}
