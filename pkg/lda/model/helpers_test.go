package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/lda/pkg/lda/vocab"
)

// separableCorpus builds documents from disjoint term groups. Every document
// of group g repeats term j of that group weights[j] times, so each group's
// top three terms are fixed.
func separableCorpus(groups, docsPerGroup int) [][]string {
	weights := []int{8, 6, 4, 2, 1, 1}
	var docs [][]string
	for d := 0; d < groups*docsPerGroup; d++ {
		g := d % groups
		var doc []string
		for j, n := range weights {
			for r := 0; r < n; r++ {
				doc = append(doc, fmt.Sprintf("g%dt%d", g, j))
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

func train(t *testing.T, docs [][]string, cfg Config) *Result {
	t.Helper()
	v, encoded, err := vocab.Build(docs)
	require.NoError(t, err)
	res, err := Train(context.Background(), v, encoded, cfg)
	require.NoError(t, err)
	return res
}

func topTermSets(t *testing.T, m *Model, n int) []map[string]bool {
	t.Helper()
	var out []map[string]bool
	for k := 0; k < m.Topics(); k++ {
		desc, err := m.Describe(k, n)
		require.NoError(t, err)
		set := make(map[string]bool, n)
		for _, term := range desc.TermList() {
			set[term] = true
		}
		out = append(out, set)
	}
	return out
}
