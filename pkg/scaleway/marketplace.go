package scaleway

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// MarketplaceImage is a catalog entry with all of its published versions.
type MarketplaceImage struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Categories           []string             `json:"categories"`
	CreationDate         string               `json:"creation_date"`
	CurrentPublicVersion string               `json:"current_public_version"`
	Versions             []MarketplaceVersion `json:"versions"`
}

// MarketplaceVersion is one published version of a catalog entry.
type MarketplaceVersion struct {
	ID          string       `json:"id"`
	LocalImages []LocalImage `json:"local_images"`
}

// LocalImage is a bootable disk image in one zone.
type LocalImage struct {
	ID                        string   `json:"id"`
	Arch                      string   `json:"arch"`
	Zone                      string   `json:"zone"`
	CompatibleCommercialTypes []string `json:"compatible_commercial_types"`
}

// MarketplaceImages lists the whole public catalog.
func (c *Client) MarketplaceImages(ctx context.Context) ([]MarketplaceImage, error) {
	var out struct {
		Images []MarketplaceImage `json:"images"`
	}
	if err := c.do(ctx, "GET", c.MarketplaceURL+"/images", nil, &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

// FindBootstrapImage picks the local image the builder boots from: the newest
// Ubuntu distribution entry whose current public version carries a disk image
// compatible with the commercial type in the given zone.
func FindBootstrapImage(images []MarketplaceImage, zone, commercialType string) (string, error) {
	var candidates []MarketplaceImage
	for _, image := range images {
		if strings.Contains(strings.ToLower(image.Name), "ubuntu") && hasCategory(image, "distribution") {
			candidates = append(candidates, image)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreationDate > candidates[j].CreationDate
	})

	for _, image := range candidates {
		for _, version := range image.Versions {
			if version.ID != image.CurrentPublicVersion {
				continue
			}
			for _, local := range version.LocalImages {
				if !hasCommercialType(local, commercialType) {
					continue
				}
				// Older entries carry the legacy zone form (par1 for
				// fr-par-1).
				if local.Zone == zone || local.Zone == legacyZone(zone) {
					return local.ID, nil
				}
			}
		}
	}
	return "", fmt.Errorf("no ubuntu image compatible with %s in %s", commercialType, zone)
}

func hasCategory(image MarketplaceImage, category string) bool {
	for _, c := range image.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func hasCommercialType(local LocalImage, commercialType string) bool {
	for _, t := range local.CompatibleCommercialTypes {
		if t == commercialType {
			return true
		}
	}
	return false
}

// legacyZone collapses fr-par-1 into the older par1 form.
func legacyZone(zone string) string {
	parts := strings.Split(zone, "-")
	if len(parts) < 2 {
		return zone
	}
	return strings.Join(parts[len(parts)-2:], "")
}
