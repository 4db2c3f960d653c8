package styles

import "testing"

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <numFmts count="3">
    <numFmt numFmtId="164" formatCode="yyyy/mm/dd"/>
    <numFmt numFmtId="165" formatCode="@"/>
    <numFmt numFmtId="166" formatCode="0.000"/>
  </numFmts>
  <fonts count="1"><font><sz val="11"/></font></fonts>
  <cellStyleXfs count="1"><xf numFmtId="14"/></cellStyleXfs>
  <cellXfs count="7">
    <xf numFmtId="0" fontId="0"/>
    <xf numFmtId="49" applyNumberFormat="1"/>
    <xf numFmtId="14" applyNumberFormat="1"/>
    <xf numFmtId="164" applyNumberFormat="1"/>
    <xf numFmtId="165" applyNumberFormat="1"/>
    <xf numFmtId="166" applyNumberFormat="1"/>
    <xf numFmtId="20" applyNumberFormat="1"/>
  </cellXfs>
</styleSheet>`

func TestParse(t *testing.T) {
	st, err := Parse([]byte(stylesXML))
	if err != nil {
		t.Fatal(err)
	}
	if len(st) != 7 {
		t.Fatalf("len = %d, want 7 (cellStyleXfs must not be counted)", len(st))
	}
	want := []Class{ClassNumber, ClassText, ClassDate, ClassDate, ClassText, ClassNumber, ClassDate}
	for i, w := range want {
		if got := st.Class(i); got != w {
			t.Errorf("Class(%d) = %v, want %v", i, got, w)
		}
	}
	if st[3].FormatStr != "yyyy/mm/dd" {
		t.Errorf("FormatStr = %q", st[3].FormatStr)
	}
	if st[2].FormatStr != "" {
		t.Errorf("built-in FormatStr = %q, want empty", st[2].FormatStr)
	}
}

func TestOutOfRange(t *testing.T) {
	var st StyleTable
	if st.IsDate(0) || st.IsText(0) {
		t.Error("empty table must classify as number")
	}
	if got := st.Get(12); got != (XFStyle{}) {
		t.Errorf("Get(12) = %+v", got)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte(`<styleSheet><cellXfs><xf numFmtId="x"/></cellXfs></styleSheet>`)); err == nil {
		t.Error("expected error for non-numeric numFmtId")
	}
}
