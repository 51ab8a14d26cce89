package kifconv

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

// ConversionRecord is one converted kifu file in the batch table.
type ConversionRecord struct {
	RunID      string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	GameID     string `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount  int32  `parquet:"name=move_count, type=INT32"`
	IssueCount int32  `parquet:"name=issue_count, type=INT32"`
	Terminal   string `parquet:"name=terminal, type=BYTE_ARRAY, convertedtype=UTF8"`
	Position   string `parquet:"name=position, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// NewConversionRecord builds the table row for a converted file. A result
// without moves keeps its issue count but has an empty position.
func NewConversionRecord(runID, gameID string, r Result) ConversionRecord {
	record := ConversionRecord{
		RunID:      runID,
		GameID:     gameID,
		MoveCount:  int32(len(r.Moves)),
		IssueCount: int32(len(r.Issues)),
		Terminal:   r.Terminal,
	}
	if len(r.Moves) > 0 {
		record.Position = r.PositionCommand()
	}
	return record
}

// GameID names a kifu file by its slash-separated path relative to root, so
// files with the same name in different subdirectories stay distinct. Paths
// outside root fall back to the base name.
func GameID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

//go:embed schema/parquet_schema.json
var parquetSchemaJSON []byte

// WriteParquet writes every record received on records until it is closed.
// The channel is drained even when writing fails, so producers never block.
func WriteParquet(path string, records <-chan ConversionRecord, parallel int64) (err error) {
	defer func() {
		if err != nil {
			for range records {
			}
		}
	}()

	schema, err := loadParquetSchema(parquetSchemaJSON)
	if err != nil {
		return err
	}
	if err := validateSchema(schema, ConversionRecord{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(ConversionRecord), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a conversion table.
func ReadParquet(path string, parallel int64) ([]ConversionRecord, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(ConversionRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]ConversionRecord, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		if remain := num - offset; remain < batchSize {
			batchSize = remain
		}
		batch := make([]ConversionRecord, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

func loadParquetSchema(data []byte) (ParquetSchema, error) {
	var schema ParquetSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return ParquetSchema{}, err
	}
	return schema, nil
}

func validateSchema(schema ParquetSchema, sample any) error {
	schemaFields := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = struct{}{}
	}
	structFields := structParquetFieldNames(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structParquetFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		name := parseParquetName(v.Field(i).Tag.Get("parquet"))
		if name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	if tag == "" {
		return ""
	}
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	sort.Strings(diff)
	return diff
}
