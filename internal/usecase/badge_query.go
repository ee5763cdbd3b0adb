package usecase

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/pkg/filterexpr"
)

var badgeSchema = filterexpr.Schema{
	Filter: map[string]filterexpr.FilterField{
		"id": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "ID", filterexpr.OpSW: "IDPrefix", filterexpr.OpIN: "IDs"},
		},
		"category": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Category", filterexpr.OpIN: "Categories"},
		},
		"type": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Type", filterexpr.OpIN: "Types"},
		},
		"threshold": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpGTE: "MinThreshold", filterexpr.OpLTE: "MaxThreshold"},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultKey:  "catalog",
		FallbackKey: "id",
		Keys:        []string{"catalog", "id", "name", "threshold"},
	},
}

type badgeParams struct {
	ID           *string
	IDPrefix     *string
	IDs          []string
	Category     *string
	Categories   []string
	Type         *string
	Types        []string
	MinThreshold *int
	MaxThreshold *int

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

func (p *badgeParams) match(b entity.Badge) bool {
	switch {
	case p.ID != nil && b.ID != *p.ID:
		return false
	case p.IDPrefix != nil && !strings.HasPrefix(b.ID, *p.IDPrefix):
		return false
	case len(p.IDs) > 0 && !lo.Contains(p.IDs, b.ID):
		return false
	case p.Category != nil && string(b.Category) != *p.Category:
		return false
	case len(p.Categories) > 0 && !lo.Contains(p.Categories, string(b.Category)):
		return false
	case p.Type != nil && string(b.Requirement.Type) != *p.Type:
		return false
	case len(p.Types) > 0 && !lo.Contains(p.Types, string(b.Requirement.Type)):
		return false
	case p.MinThreshold != nil && b.Requirement.Threshold < *p.MinThreshold:
		return false
	case p.MaxThreshold != nil && b.Requirement.Threshold > *p.MaxThreshold:
		return false
	}
	return true
}

type indexedBadge struct {
	pos   int
	badge entity.Badge
}

func compareBadges(key string, a, b indexedBadge) int {
	switch key {
	case "id":
		return cmp.Compare(a.badge.ID, b.badge.ID)
	case "name":
		return cmp.Compare(a.badge.Name, b.badge.Name)
	case "threshold":
		return cmp.Compare(a.badge.Requirement.Threshold, b.badge.Requirement.Threshold)
	default:
		return cmp.Compare(a.pos, b.pos)
	}
}

// queryBadges applies a filter/order query to the catalog. earned decides
// the status filter.
func queryBadges(catalog []entity.Badge, query *repository.ListBadgeQuery, earned func(string) bool) ([]entity.Badge, error) {
	if query == nil {
		query = &repository.ListBadgeQuery{}
	}
	switch query.Status {
	case repository.BadgeStatusAll, repository.BadgeStatusEarned, repository.BadgeStatusLocked:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", entity.ErrInvalidBadgeQuery, query.Status)
	}
	var params badgeParams
	if err := filterexpr.Bind(&query.FilterOrder, &params, badgeSchema); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidBadgeQuery, err)
	}

	items := make([]indexedBadge, 0, len(catalog))
	for i, b := range catalog {
		switch query.Status {
		case repository.BadgeStatusEarned:
			if !earned(b.ID) {
				continue
			}
		case repository.BadgeStatusLocked:
			if earned(b.ID) {
				continue
			}
		}
		if params.match(b) {
			items = append(items, indexedBadge{pos: i, badge: b})
		}
	}

	slices.SortStableFunc(items, func(a, b indexedBadge) int {
		c := compareBadges(params.PrimaryKey, a, b)
		if params.PrimaryDesc {
			c = -c
		}
		if c != 0 {
			return c
		}
		c = compareBadges(params.SecondaryKey, a, b)
		if params.SecondaryDesc {
			c = -c
		}
		return c
	})

	return lo.Map(items, func(it indexedBadge, _ int) entity.Badge { return it.badge }), nil
}
