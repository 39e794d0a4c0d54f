package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/yamagen-seiki/plantrack/internal/config"
	"github.com/yamagen-seiki/plantrack/internal/export"
	"github.com/yamagen-seiki/plantrack/internal/model"
)

const testOrdersTSV = "指図番号\t親指図番号\t計画開始\t計画終了\t完成残数\tMRP管理者\tステータス\tDLV日付\n" +
	"1000001\t2000001\t2024/06/01\t2024/06/20\t5\tPC1\tREL\t\n" +
	"1000002\t2000001\t2024/06/02\t2024/06/25\t3\tPC2\tREL\t\n"

const testRequirementsTSV = "子指図番号\t所要日\t子MRP管理者\t工程(子)\tC\tA\tC,A以外\t検査\t親指図番号\n" +
	"1000001\t2024/06/18\tPC1\t旋盤\t\t\t\t\t2000001\n"

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	ordersPath := filepath.Join(dir, "zp02.txt")
	reqsPath := filepath.Join(dir, "zp51n.txt")
	require.NoError(t, os.WriteFile(ordersPath, []byte(testOrdersTSV), 0o644))
	require.NoError(t, os.WriteFile(reqsPath, []byte(testRequirementsTSV), 0o644))

	return &config.Config{
		Store: config.StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(dir, "test.db"),
		},
		Feeds: config.FeedsConfig{
			OrdersPath:       ordersPath,
			RequirementsPath: reqsPath,
			Encoding:         "utf-8",
		},
		Export: config.ExportConfig{Dir: dir},
	}
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "oracle"}}

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestClassifier_FromConfig(t *testing.T) {
	cfg = &config.Config{Classification: config.ClassificationConfig{
		InHouse:    []string{"MC1"},
		Outsourced: []string{"GK"},
	}}
	cls := classifier()
	assert.Equal(t, model.TypeInHouse, cls.Classify("MC1"))
	assert.Equal(t, model.TypeOutsourced, cls.Classify("GK"))
	assert.Equal(t, model.TypeOther, cls.Classify("PC1"))

	cfg = &config.Config{}
	cls = classifier()
	assert.Equal(t, model.TypeInHouse, cls.Classify("PC1"))
}

func TestImportThenReconcile(t *testing.T) {
	dir := t.TempDir()
	cfg = testConfig(t, dir)

	importCmd.SetContext(context.Background())
	defer importCmd.SetContext(nil)
	require.NoError(t, importCmd.RunE(importCmd, nil))

	reconcileCmd.SetContext(context.Background())
	defer reconcileCmd.SetContext(nil)
	require.NoError(t, reconcileCmd.RunE(reconcileCmd, nil))

	// The run landed in the ledger.
	st, err := openStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 2, runs[0].Summary.Orders)
	assert.Equal(t, 1, runs[0].Summary.Requirements)
}

func TestExportCmd_WritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	cfg = testConfig(t, dir)

	importCmd.SetContext(context.Background())
	defer importCmd.SetContext(nil)
	require.NoError(t, importCmd.RunE(importCmd, nil))

	out := filepath.Join(dir, "plan.xlsx")
	exportOut = out
	defer func() { exportOut = "" }()

	exportCmd.SetContext(context.Background())
	defer exportCmd.SetContext(nil)
	require.NoError(t, exportCmd.RunE(exportCmd, nil))

	f, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	sheet, ok := f.Sheet[export.SheetName]
	require.True(t, ok)
	assert.Len(t, sheet.Rows, 3) // header + 2 orders
}

func TestImportCmd_MissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg = testConfig(t, dir)
	cfg.Feeds.OrdersPath = filepath.Join(dir, "missing.txt")

	importCmd.SetContext(context.Background())
	defer importCmd.SetContext(nil)
	err := importCmd.RunE(importCmd, nil)
	require.Error(t, err)
}
