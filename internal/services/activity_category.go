package services

import (
	"strings"
)

type ActivityCategory string

const (
	CategoryFood        ActivityCategory = "food"
	CategoryNature      ActivityCategory = "nature"
	CategorySightseeing ActivityCategory = "sightseeing"
	CategoryEvent       ActivityCategory = "event"
	CategoryShopping    ActivityCategory = "shopping"
	CategoryLodging     ActivityCategory = "lodging"
	CategoryGeneral     ActivityCategory = "general"
)

type categoryRule struct {
	keywords []string
	category ActivityCategory
}

// Evaluated in order; the first rule with a matching substring wins.
// Polish keywords come from the planner's prompt language.
var categoryRules = []categoryRule{
	{[]string{"eat", "food", "restaurant", "obiad", "kolacja", "śniadanie", "dinner", "lunch", "breakfast"}, CategoryFood},
	{[]string{"hike", "nature", "park", "spacer", "walk"}, CategoryNature},
	{[]string{"museum", "landmark", "historical", "sightseeing", "atrakcja", "zabytek", "attraction"}, CategorySightseeing},
	{[]string{"tour", "event", "ticket", "wydarzenie"}, CategoryEvent},
	{[]string{"shop", "zakupy", "shopping"}, CategoryShopping},
	{[]string{"hotel", "sleep", "accommodation", "nocleg"}, CategoryLodging},
}

// ClassifyActivity maps a free-text activity type to a display category.
func ClassifyActivity(activityType *string) ActivityCategory {
	if activityType == nil {
		return CategoryGeneral
	}
	t := strings.ToLower(*activityType)
	if t == "" {
		return CategoryGeneral
	}
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
