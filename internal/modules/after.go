package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"kiln/internal/compilation"
	"kiln/internal/diag"
)

const (
	StripSymbolsName     = "strip-symbols"
	ChecksumName         = "checksum"
	WarningsAsErrorsName = "warnings-as-errors"
)

// StripSymbols drops the symbol stream when building Release.
type StripSymbols struct{ compilation.Base }

func (StripSymbols) Name() string { return StripSymbolsName }

func (StripSymbols) AfterCompile(c *compilation.AfterCompileContext) error {
	if c.ProjectContext().Configuration() != "Release" || c.SymbolStream() == nil {
		return nil
	}
	c.SetSymbolStream(nil)
	diag.ReportInfo(diag.BagReporter{Bag: c.Diagnostics()}, diag.ModSymbolsDropped, diag.Location{},
		"symbols dropped for Release build").Emit()
	return nil
}

// Checksum reports the sha256 of the emitted image.
type Checksum struct{ compilation.Base }

func (Checksum) Name() string { return ChecksumName }

func (Checksum) AfterCompile(c *compilation.AfterCompileContext) error {
	asm := c.AssemblyStream()
	if asm == nil {
		return nil
	}
	sum := sha256.Sum256(asm.Bytes())
	diag.ReportInfo(diag.BagReporter{Bag: c.Diagnostics()}, diag.ModChecksum, diag.Location{},
		"sha256 "+hex.EncodeToString(sum[:])).Emit()
	return nil
}

// WarningsAsErrors raises every warning to an error in place, keeping the
// order of the diagnostics.
type WarningsAsErrors struct{ compilation.Base }

func (WarningsAsErrors) Name() string { return WarningsAsErrorsName }

func (WarningsAsErrors) AfterCompile(c *compilation.AfterCompileContext) error {
	bag := c.Diagnostics()
	promoted := 0
	for i := 0; i < bag.Len(); i++ {
		d := bag.At(i)
		if d.Severity != diag.SevWarning {
			continue
		}
		d.Severity = diag.SevError
		bag.Set(i, d.WithNote(d.Primary, "promoted by "+WarningsAsErrorsName))
		promoted++
	}
	if promoted > 0 {
		diag.ReportInfo(diag.BagReporter{Bag: bag}, diag.ModPromoted, diag.Location{},
			fmt.Sprintf("%d warning(s) treated as errors", promoted)).Emit()
	}
	return nil
}
