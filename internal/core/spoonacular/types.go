package spoonacular

import (
	"fmt"

	"greenerate/internal/pkg/common"
)

// 以下為 Spoonacular 回應的線上格式；指標欄位用於分辨「缺少」與「零值」

type wireSuggestion struct {
	Name *string `json:"name"`
}

type wireCandidate struct {
	ID    *int    `json:"id"`
	Title *string `json:"title"`
	Image *string `json:"image"`
}

type wireIngredient struct {
	Original *string `json:"original"`
}

type wireInformation struct {
	ID                  *int             `json:"id"`
	Title               *string          `json:"title"`
	Image               *string          `json:"image"`
	Instructions        *string          `json:"instructions"`
	ExtendedIngredients []wireIngredient `json:"extendedIngredients"`
}

func malformed(format string, args ...interface{}) error {
	return common.ErrMalformedResponse.Wrap(fmt.Errorf(format, args...))
}

func parseSuggestions(body []byte) ([]common.Suggestion, error) {
	var wire []wireSuggestion
	if err := common.ParseJSONBytes(body, &wire); err != nil {
		return nil, common.ErrMalformedResponse.Wrap(err)
	}

	out := make([]common.Suggestion, 0, len(wire))
	for i, w := range wire {
		if w.Name == nil {
			return nil, malformed("suggestion %d: missing name", i)
		}
		out = append(out, common.Suggestion{Name: *w.Name})
	}
	return out, nil
}

func parseCandidates(body []byte) ([]common.RecipeCandidate, error) {
	var wire []wireCandidate
	if err := common.ParseJSONBytes(body, &wire); err != nil {
		return nil, common.ErrMalformedResponse.Wrap(err)
	}

	out := make([]common.RecipeCandidate, 0, len(wire))
	for i, w := range wire {
		if w.ID == nil {
			return nil, malformed("candidate %d: missing id", i)
		}
		if w.Title == nil {
			return nil, malformed("candidate %d: missing title", i)
		}
		c := common.RecipeCandidate{ID: *w.ID, Title: *w.Title}
		if w.Image != nil {
			c.ImageURL = *w.Image
		}
		out = append(out, c)
	}
	return out, nil
}

func parseInformation(body []byte, id int) (*common.RecipeInformation, error) {
	var wire wireInformation
	if err := common.ParseJSONBytes(body, &wire); err != nil {
		return nil, common.ErrMalformedResponse.Wrap(err)
	}

	if wire.Title == nil {
		return nil, malformed("recipe %d: missing title", id)
	}

	info := &common.RecipeInformation{
		ID:              id,
		Title:           *wire.Title,
		Instructions:    wire.Instructions,
		IngredientLines: make([]string, 0, len(wire.ExtendedIngredients)),
	}
	if wire.ID != nil {
		info.ID = *wire.ID
	}
	if wire.Image != nil {
		info.ImageURL = *wire.Image
	}
	for i, ing := range wire.ExtendedIngredients {
		if ing.Original == nil {
			return nil, malformed("recipe %d: ingredient %d missing original", id, i)
		}
		info.IngredientLines = append(info.IngredientLines, *ing.Original)
	}
	return info, nil
}
