// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package doc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVersion(t *testing.T) {
	validVersion := regexp.MustCompile(`^\d+(\.\d+){2}$`)
	assert.True(t, validVersion.MatchString(Version()))
}

func TestPathsDocumented(t *testing.T) {
	content, err := FS.ReadFile("mixledger.yaml")
	require.NoError(t, err)

	var spec struct {
		Paths map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(content, &spec))
	for _, p := range []string{
		"/mixnodes/{id}",
		"/epoch/interval",
		"/rewards/estimate/{id}",
		"/rewards/history",
		"/subscriptions/epoch",
	} {
		assert.Contains(t, spec.Paths, p)
	}
}
