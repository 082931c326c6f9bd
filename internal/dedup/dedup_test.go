package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avoronov/harvest/internal/models"
)

func TestURLs(t *testing.T) {
	existing := []*models.ContentItem{
		{ID: "1", Kind: models.KindURL, Locator: "https://example.com"},
		{ID: "2", Kind: models.KindFile, DisplayName: "https://example.org"}, // file, must not match by name
	}

	p := URLs([]string{"https://example.com", "https://example.org", "https://new.example"}, existing)

	assert.Equal(t, []string{"https://example.org", "https://new.example"}, p.New)
	assert.Equal(t, []string{"https://example.com"}, p.Duplicate)
}

func TestURLs_ExactLocatorEqualityOnly(t *testing.T) {
	existing := []*models.ContentItem{
		{ID: "1", Kind: models.KindURL, Locator: "https://example.com/path"},
	}

	p := URLs([]string{"https://example.com/path2"}, existing)

	assert.Empty(t, p.Duplicate)
	assert.Len(t, p.New, 1)
}

func TestFiles(t *testing.T) {
	existing := []*models.ContentItem{
		{ID: "1", Kind: models.KindFile, DisplayName: "report.pdf", SizeBytes: 2048},
	}

	candidates := []models.FileDescriptor{
		{Name: "report.pdf", SizeBytes: 2048}, // same name and size: duplicate
		{Name: "report.pdf", SizeBytes: 1000}, // same name, different size: new
		{Name: "other.pdf", SizeBytes: 2048},  // different name: new
	}

	p := Files(candidates, existing)

	assert.Len(t, p.Duplicate, 1)
	assert.Equal(t, "report.pdf", p.Duplicate[0].Name)
	assert.Len(t, p.New, 2)
}

func TestFiles_EmptyExisting(t *testing.T) {
	p := Files([]models.FileDescriptor{{Name: "a.txt", SizeBytes: 1}}, nil)
	assert.Len(t, p.New, 1)
	assert.Empty(t, p.Duplicate)
}
