package client

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/student-console/internal/models"
)

// queryParams keeps insertion order, unlike url.Values which sorts keys.
type queryParams []queryParam

type queryParam struct {
	key   string
	value string
}

func (p queryParams) set(key, value string) queryParams {
	return append(p, queryParam{key: key, value: value})
}

// Encode renders key=value pairs in insertion order.
func (p queryParams) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, kv := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(kv.key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv.value))
	}
	return b.String()
}

func reportParams(q models.ReportQuery) queryParams {
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = models.DefaultSortBy
	}
	sortOrder := q.SortOrder
	if sortOrder == "" {
		sortOrder = models.DefaultSortOrder
	}
	size := q.Size
	if size <= 0 {
		size = models.DefaultPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	params := queryParams{}.
		set("page", strconv.Itoa(page)).
		set("size", strconv.Itoa(size)).
		set("sortBy", sortBy).
		set("sortOrder", sortOrder)
	return append(params, filterParams(q.Filter)...)
}

// filterParams omits unset filters entirely; set values are sent as given.
func filterParams(f models.ReportFilter) queryParams {
	var params queryParams
	if f.StudentID != 0 {
		params = params.set("studentId", strconv.FormatInt(f.StudentID, 10))
	}
	if f.StudentClass != "" {
		params = params.set("studentClass", f.StudentClass)
	}
	return params
}
