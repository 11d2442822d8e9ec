// Package internal holds small helpers shared by the release steps.
package internal

import (
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cases.Caser keeps state and is not safe for concurrent use, so instances are pooled.
var caserPool = sync.Pool{
	New: func() any {
		caser := cases.Title(language.English, cases.NoLower)
		return &caser
	},
}

// TitleCase returns s in title-case.  Upper-case runs like "AF" in "AFUtils" are kept.
func TitleCase(s string) string {
	caser := caserPool.Get().(*cases.Caser)
	defer caserPool.Put(caser)

	return caser.String(s)
}
