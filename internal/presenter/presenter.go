// Package presenter derives sorted, filtered and paginated views of a contact collection held in
// memory, and keeps that collection in step with the server after mutations.
//
// A List is a value. Every method returns a new List and leaves the receiver untouched, so views
// can be derived and tested without shared state.
package presenter

import (
	"fmt"
	"slices"
	"strings"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// Direction is the order in which a field is sorted.
type Direction int

const (
	// Ascending sorts from the smallest to the largest value.
	Ascending Direction = iota
	// Descending sorts from the largest to the smallest value.
	Descending
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// PageSizes are the page sizes a list can be shown with.
var PageSizes = []int{5, 10, 25}

const (
	// DefaultPageSize is the page size of a new list.
	DefaultPageSize = 5
	// DefaultSortField is the field a new list is sorted by.
	DefaultSortField = model.FieldFirstName
)

// Sort returns the contacts ordered by the text of the given field, using plain byte-wise string
// comparison. The order of contacts with equal values is unspecified. The input is not modified.
func Sort(contacts []model.Contact, field string, direction Direction) []model.Contact {
	ordered := slices.Clone(contacts)
	slices.SortFunc(ordered, func(a, b model.Contact) int {
		c := strings.Compare(a.Field(field), b.Field(field))
		if direction == Descending {
			return -c
		}
		return c
	})
	return ordered
}

// Paginate returns the contacts at positions [pageIndex*pageSize, pageIndex*pageSize+pageSize),
// clipped to the available length. A page outside the sequence is empty.
func Paginate(ordered []model.Contact, pageIndex int, pageSize int) []model.Contact {
	if pageIndex < 0 || pageIndex >= PageCount(len(ordered), pageSize) {
		return []model.Contact{}
	}
	start := pageIndex * pageSize
	end := min(start+pageSize, len(ordered))
	return slices.Clone(ordered[start:end])
}

// Filter returns the contacts whose field is exactly equal to value.
func Filter(contacts []model.Contact, field string, value string) []model.Contact {
	matches := []model.Contact{}
	for _, c := range contacts {
		if c.Field(field) == value {
			matches = append(matches, c)
		}
	}
	return matches
}

// PageCount returns the number of non-empty pages for n contacts.
func PageCount(n int, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := n / pageSize
	if n%pageSize != 0 {
		pages++
	}
	return pages
}

// List is the state of a contact table: the collection, how it is sorted, filtered and paged,
// and which contact is being edited.
type List struct {
	contacts      []model.Contact
	sortField     string
	sortDirection Direction
	pageIndex     int
	pageSize      int
	filterField   string
	filterValue   string
	editing       string
}

// NewList returns a list over the given contacts with the default sort and page size.
func NewList(contacts []model.Contact) List {
	return List{
		contacts:      slices.Clone(contacts),
		sortField:     DefaultSortField,
		sortDirection: Ascending,
		pageSize:      DefaultPageSize,
	}
}

// Contacts returns a copy of the whole collection in stored order.
func (l List) Contacts() []model.Contact { return slices.Clone(l.contacts) }

// SortField returns the name of the field the view is sorted by.
func (l List) SortField() string { return l.sortField }

// SortDirection returns the order of the sorted field.
func (l List) SortDirection() Direction { return l.sortDirection }

// PageIndex returns the zero-based index of the shown page.
func (l List) PageIndex() int { return l.pageIndex }

// PageSize returns the number of contacts per page.
func (l List) PageSize() int { return l.pageSize }

// Editing returns the id of the contact being edited, or the empty string.
func (l List) Editing() string { return l.editing }

// Filtering returns the active filter. An empty field means no filter.
func (l List) Filtering() (field string, value string) {
	return l.filterField, l.filterValue
}

// Len returns the number of contacts in the collection, ignoring the filter.
func (l List) Len() int { return len(l.contacts) }

// Find returns the contact with the given id.
func (l List) Find(id string) (model.Contact, bool) {
	i := l.indexOf(id)
	if i < 0 {
		return model.Contact{}, false
	}
	return l.contacts[i], true
}

// View returns the current page of the filtered and sorted collection.
func (l List) View() []model.Contact {
	return Paginate(Sort(l.visible(), l.sortField, l.sortDirection), l.pageIndex, l.pageSize)
}

// PageCount returns the number of non-empty pages of the filtered collection.
func (l List) PageCount() int {
	return PageCount(len(l.visible()), l.pageSize)
}

// ToggleSort sorts by field. Choosing the active field again flips the direction, choosing
// another field sorts it ascending.
func (l List) ToggleSort(field string) List {
	if l.sortField == field {
		if l.sortDirection == Ascending {
			l.sortDirection = Descending
		} else {
			l.sortDirection = Ascending
		}
		return l
	}
	l.sortField = field
	l.sortDirection = Ascending
	return l
}

// WithPage moves to the given zero-based page. Pages past the end show no contacts.
func (l List) WithPage(pageIndex int) List {
	l.pageIndex = max(pageIndex, 0)
	return l
}

// WithPageSize changes the page size and returns to the first page. Only sizes listed in
// PageSizes are accepted.
func (l List) WithPageSize(pageSize int) (List, error) {
	if !slices.Contains(PageSizes, pageSize) {
		return l, fmt.Errorf("page size %d is not one of %v", pageSize, PageSizes)
	}
	l.pageSize = pageSize
	l.pageIndex = 0
	return l, nil
}

// WithFilter shows only contacts whose field equals value and returns to the first page. An
// empty field removes the filter.
func (l List) WithFilter(field string, value string) List {
	l.filterField = field
	l.filterValue = value
	l.pageIndex = 0
	return l
}

// Edit marks the contact with the given id as being edited.
func (l List) Edit(id string) List {
	l.editing = id
	return l
}

// Replace swaps in a fresh collection, as loaded from the server. Sort and page state stay.
func (l List) Replace(contacts []model.Contact) List {
	l.contacts = slices.Clone(contacts)
	return l
}

// Created appends a newly created contact. The sort and page state are unchanged, so the new
// contact is not necessarily on the current page.
func (l List) Created(c model.Contact) List {
	l.contacts = append(slices.Clone(l.contacts), c)
	return l
}

// Updated replaces the contact with the same id in place and ends editing.
func (l List) Updated(c model.Contact) List {
	if i := l.indexOf(c.ID); i >= 0 {
		l.contacts = slices.Clone(l.contacts)
		l.contacts[i] = c
	}
	l.editing = ""
	return l
}

// Deleted removes the contact with the given id.
func (l List) Deleted(id string) List {
	if i := l.indexOf(id); i >= 0 {
		l.contacts = slices.Delete(slices.Clone(l.contacts), i, i+1)
	}
	return l
}

func (l List) visible() []model.Contact {
	if l.filterField == "" {
		return l.contacts
	}
	return Filter(l.contacts, l.filterField, l.filterValue)
}

func (l List) indexOf(id string) int {
	return slices.IndexFunc(l.contacts, func(c model.Contact) bool { return c.ID == id })
}
