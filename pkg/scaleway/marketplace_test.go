package scaleway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogImage(name, created, publicVersion string, locals ...LocalImage) MarketplaceImage {
	return MarketplaceImage{
		Name:                 name,
		Categories:           []string{"distribution"},
		CreationDate:         created,
		CurrentPublicVersion: publicVersion,
		Versions: []MarketplaceVersion{
			{ID: publicVersion, LocalImages: locals},
		},
	}
}

func localImage(id, zone string, types ...string) LocalImage {
	return LocalImage{ID: id, Zone: zone, CompatibleCommercialTypes: types}
}

func TestFindBootstrapImage(t *testing.T) {
	t.Run("picks newest compatible ubuntu", func(t *testing.T) {
		images := []MarketplaceImage{
			catalogImage("Ubuntu Xenial", "2016-04-21T00:00:00Z", "v1",
				localImage("old", "fr-par-1", "DEV1-M")),
			catalogImage("Ubuntu Focal", "2020-04-23T00:00:00Z", "v2",
				localImage("new", "fr-par-1", "DEV1-M")),
		}

		id, err := FindBootstrapImage(images, "fr-par-1", "DEV1-M")
		require.NoError(t, err)
		assert.Equal(t, "new", id)
	})

	t.Run("accepts legacy zone form", func(t *testing.T) {
		images := []MarketplaceImage{
			catalogImage("Ubuntu Bionic", "2018-04-26T00:00:00Z", "v1",
				localImage("legacy", "par1", "DEV1-M")),
		}

		id, err := FindBootstrapImage(images, "fr-par-1", "DEV1-M")
		require.NoError(t, err)
		assert.Equal(t, "legacy", id)
	})

	t.Run("skips other distributions", func(t *testing.T) {
		images := []MarketplaceImage{
			catalogImage("Debian Buster", "2019-07-06T00:00:00Z", "v1",
				localImage("debian", "fr-par-1", "DEV1-M")),
		}

		_, err := FindBootstrapImage(images, "fr-par-1", "DEV1-M")
		assert.ErrorContains(t, err, "no ubuntu image")
	})

	t.Run("skips non-distribution entries", func(t *testing.T) {
		images := []MarketplaceImage{
			{
				Name:                 "Ubuntu Docker Machine",
				Categories:           []string{"instantapp"},
				CreationDate:         "2019-01-01T00:00:00Z",
				CurrentPublicVersion: "v1",
				Versions: []MarketplaceVersion{
					{ID: "v1", LocalImages: []LocalImage{
						localImage("app", "fr-par-1", "DEV1-M"),
					}},
				},
			},
		}

		_, err := FindBootstrapImage(images, "fr-par-1", "DEV1-M")
		assert.Error(t, err)
	})

	t.Run("ignores stale versions", func(t *testing.T) {
		image := catalogImage("Ubuntu Focal", "2020-04-23T00:00:00Z", "v2")
		image.Versions = []MarketplaceVersion{
			{ID: "v1", LocalImages: []LocalImage{
				localImage("stale", "fr-par-1", "DEV1-M"),
			}},
		}

		_, err := FindBootstrapImage([]MarketplaceImage{image}, "fr-par-1", "DEV1-M")
		assert.Error(t, err)
	})

	t.Run("requires the commercial type", func(t *testing.T) {
		images := []MarketplaceImage{
			catalogImage("Ubuntu Focal", "2020-04-23T00:00:00Z", "v1",
				localImage("small-only", "fr-par-1", "DEV1-S")),
		}

		_, err := FindBootstrapImage(images, "fr-par-1", "DEV1-M")
		assert.Error(t, err)
	})

	t.Run("empty catalog", func(t *testing.T) {
		_, err := FindBootstrapImage(nil, "fr-par-1", "DEV1-M")
		assert.ErrorContains(t, err, "no ubuntu image compatible with DEV1-M in fr-par-1")
	})
}

func TestLegacyZone(t *testing.T) {
	tests := []struct {
		zone string
		want string
	}{
		{"fr-par-1", "par1"},
		{"fr-par-2", "par2"},
		{"nl-ams-1", "ams1"},
		{"par1", "par1"},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			assert.Equal(t, tt.want, legacyZone(tt.zone))
		})
	}
}
