// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package change

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWALAppendAndRecoverRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	w := NewWAL(path)

	require.NoError(t, w.Append(TxnRecord{ID: 1, Agent: "analyzer", Changes: 3}))
	require.NoError(t, w.Append(TxnRecord{ID: 2, Agent: "analyzer", Changes: 1}))

	records, err := w.Recover()
	require.NoError(t, err)
	require.Equal(t, []TxnRecord{
		{ID: 1, Agent: "analyzer", Changes: 3},
		{ID: 2, Agent: "analyzer", Changes: 1},
	}, records)
}

func TestWALRecoverOnMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")
	w := NewWAL(path)
	records, err := w.Recover()
	require.NoError(t, err)
	require.Nil(t, records)
}

func TestWALRecoverStopsAtFirstMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	content := "TXN 1 agent 2 changes\nnot a record\nTXN 3 agent 1 changes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	w := NewWAL(path)
	records, err := w.Recover()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, uint64(1), records[0].ID)
}

func TestTxnRecordStringFormat(t *testing.T) {
	r := TxnRecord{ID: 42, Agent: "analyzer", Changes: 7}
	require.Equal(t, "TXN 42 analyzer 7 changes", r.String())
}
