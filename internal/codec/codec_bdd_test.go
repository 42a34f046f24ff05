package codec_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/google/go-cmp/cmp"
	"github.com/rpggio/haulboard/internal/codec"
)

type codecBDDTestContext struct {
	columns []codec.Column
	rows    []codec.Row
	text    string
	decoded []codec.Row
	err     error
}

func (c *codecBDDTestContext) theColumns(table *godog.Table) error {
	c.columns = nil
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		c.columns = append(c.columns, codec.Column{Key: row.Cells[0].Value, Label: row.Cells[1].Value})
	}
	return nil
}

func (c *codecBDDTestContext) aRowWhereIs(key, value string) error {
	c.rows = append(c.rows, codec.Row{key: value})
	return nil
}

func (c *codecBDDTestContext) theText(doc *godog.DocString) error {
	c.text = doc.Content
	return nil
}

func (c *codecBDDTestContext) iEncodeTheRows() error {
	c.text = codec.Encode(c.rows, c.columns)
	return nil
}

func (c *codecBDDTestContext) iDecodeTheText() error {
	c.decoded, c.err = codec.Decode(c.text, c.columns)
	return nil
}

func (c *codecBDDTestContext) encodedLineShouldBe(n int, doc *godog.DocString) error {
	lines := strings.Split(c.text, "\n")
	if n < 1 || n > len(lines) {
		return fmt.Errorf("encoded text has %d lines, wanted line %d", len(lines), n)
	}
	if got := lines[n-1]; got != doc.Content {
		return fmt.Errorf("line %d is %q, want %q", n, got, doc.Content)
	}
	return nil
}

func (c *codecBDDTestContext) rowsShouldBeDecoded(n int) error {
	if c.err != nil {
		return fmt.Errorf("decode failed: %w", c.err)
	}
	if len(c.decoded) != n {
		return fmt.Errorf("decoded %d rows, want %d", len(c.decoded), n)
	}
	return nil
}

func (c *codecBDDTestContext) decodedRowShouldBe(n int, key, value string) error {
	if n < 1 || n > len(c.decoded) {
		return fmt.Errorf("no decoded row %d", n)
	}
	if got := c.decoded[n-1][key]; got != value {
		return fmt.Errorf("row %d %s is %q, want %q", n, key, got, value)
	}
	return nil
}

func (c *codecBDDTestContext) decodingShouldFailAsMalformed() error {
	if !errors.Is(c.err, codec.ErrMalformedInput) {
		return fmt.Errorf("expected malformed input, got %v", c.err)
	}
	return nil
}

func (c *codecBDDTestContext) decodingReproducesTheRows() error {
	decoded, err := codec.Decode(c.text, c.columns)
	if err != nil {
		return err
	}
	want := make([]codec.Row, 0, len(c.rows))
	for _, row := range c.rows {
		full := codec.Row{}
		for _, col := range c.columns {
			full[col.Key] = row[col.Key]
		}
		want = append(want, full)
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		return fmt.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	return nil
}

func TestCodecBDD(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			testCtx := &codecBDDTestContext{}

			ctx.Step(`^the columns:$`, testCtx.theColumns)
			ctx.Step(`^a row where "([^"]*)" is "(.*)"$`, testCtx.aRowWhereIs)
			ctx.Step(`^the text:$`, testCtx.theText)
			ctx.Step(`^I encode the rows$`, testCtx.iEncodeTheRows)
			ctx.Step(`^I decode the text$`, testCtx.iDecodeTheText)
			ctx.Step(`^encoded line (\d+) should be:$`, testCtx.encodedLineShouldBe)
			ctx.Step(`^(\d+) rows? should be decoded$`, testCtx.rowsShouldBeDecoded)
			ctx.Step(`^decoded row (\d+) "([^"]*)" should be "(.*)"$`, testCtx.decodedRowShouldBe)
			ctx.Step(`^decoding should fail as malformed input$`, testCtx.decodingShouldFailAsMalformed)
			ctx.Step(`^decoding the encoded text should reproduce the rows$`, testCtx.decodingReproducesTheRows)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
