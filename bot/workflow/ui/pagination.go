package ui

import (
	"fmt"

	"HouseBot/bot/chat"
)

// DefaultItemsPerPage applies when no page size is configured.
const DefaultItemsPerPage = 8

// PageToken returns the callback token that opens the given page.
type PageToken func(page int) (string, error)

// PaginatedList creates an inline keyboard with one item per row and a
// navigation row:
//
//	[Item 1]
//	[Item 2]
//	[◀️ Back] [1/3] [Next ▶️]
//
// The page indicator re-opens the current page.
func PaginatedList(items []SelectableItem, currentPage, totalPages int, pageToken PageToken) (chat.Keyboard, error) {
	rows := SelectionKeyboard(items)

	navRow, err := buildNavRow(currentPage, totalPages, pageToken)
	if err != nil {
		return nil, err
	}
	return rows.Row(navRow...), nil
}

func buildNavRow(currentPage, totalPages int, pageToken PageToken) ([]chat.InlineButton, error) {
	if totalPages <= 1 {
		return nil, nil
	}

	navRow := make([]chat.InlineButton, 0, 3)
	if currentPage > 1 {
		token, err := pageToken(currentPage - 1)
		if err != nil {
			return nil, err
		}
		navRow = append(navRow, Button("◀️ Back", token))
	}

	token, err := pageToken(currentPage)
	if err != nil {
		return nil, err
	}
	navRow = append(navRow, Button(fmt.Sprintf("%d/%d", currentPage, totalPages), token))

	if currentPage < totalPages {
		token, err := pageToken(currentPage + 1)
		if err != nil {
			return nil, err
		}
		navRow = append(navRow, Button("Next ▶️", token))
	}

	return navRow, nil
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	return page
}

// GetPageSlice returns a slice of items for the given page.
func GetPageSlice[T any](items []T, page, itemsPerPage int) []T {
	if page < 1 {
		page = 1
	}

	start := (page - 1) * itemsPerPage
	if start >= len(items) {
		return nil
	}

	end := start + itemsPerPage
	if end > len(items) {
		end = len(items)
	}

	return items[start:end]
}

// CalculateTotalPages calculates the total number of pages.
func CalculateTotalPages(totalItems, itemsPerPage int) int {
	if itemsPerPage <= 0 {
		return 1
	}
	pages := totalItems / itemsPerPage
	if totalItems%itemsPerPage > 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}
