package search

import "questlog/api/internal/content"

// RecordsFromCatalog flattens the quest catalog into index records.
func RecordsFromCatalog(catalog *content.Catalog) []QuestRecord {
	records := make([]QuestRecord, 0, len(catalog.Quests))
	for _, quest := range catalog.Quests {
		record := QuestRecord{
			ID:            quest.ID,
			Title:         quest.Title,
			TraderID:      quest.TraderID,
			LevelRequired: quest.LevelRequired,
			KappaRequired: quest.KappaRequired,
			WikiLink:      quest.WikiLink,
		}
		if trader, ok := catalog.Trader(quest.TraderID); ok {
			record.TraderName = trader.Name
		}
		seen := make(map[string]bool)
		for _, obj := range quest.Objectives {
			record.Objectives = append(record.Objectives, obj.Description)
			if obj.Map != "" && !seen[obj.Map] {
				seen[obj.Map] = true
				record.Maps = append(record.Maps, obj.Map)
			}
		}
		records = append(records, record)
	}
	return records
}
