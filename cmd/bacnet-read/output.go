package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/baetyl/baetyl-bacnet-reader/driver"
)

const (
	formatJSON = "json"
	formatRaw  = "raw"
)

// printRecords writes one line per record: the whole record as JSON, or
// only its value
func printRecords(w io.Writer, format string, records []driver.Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if format == formatJSON {
			if err := enc.Encode(rec); err != nil {
				return err
			}
			continue
		}
		if rec.Err != nil {
			fmt.Fprintf(w, "error: %s\n", rec.Error)
			continue
		}
		fmt.Fprintln(w, rawValue(rec.Value))
	}
	return nil
}

func rawValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case []byte:
		return fmt.Sprintf("%x", val)
	case []interface{}:
		s := "["
		for i, e := range val {
			if i > 0 {
				s += ", "
			}
			s += rawValue(e)
		}
		return s + "]"
	}
	return fmt.Sprint(v)
}

func countFailed(records []driver.Record) int {
	n := 0
	for _, rec := range records {
		if rec.Err != nil {
			n++
		}
	}
	return n
}
