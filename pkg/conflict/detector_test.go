package conflict_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oisee/encdb/pkg/bits"
	"github.com/oisee/encdb/pkg/cond"
	"github.com/oisee/encdb/pkg/conflict"
	"github.com/oisee/encdb/pkg/encoding"
	"github.com/oisee/encdb/pkg/isa"
	"github.com/oisee/encdb/pkg/schema"
)

// fakeOracle answers every query the same way.
type fakeOracle struct {
	sat   bool
	calls atomic.Int32
}

func (f *fakeOracle) Satisfiable(cond.Condition) bool {
	f.calls.Add(1)
	return f.sat
}

func (f *fakeOracle) Conjunction(cs ...cond.Condition) cond.Condition {
	return cond.And(cs...)
}

func mustFormat(name, match string, operands ...*encoding.Operand) *encoding.Format {
	f, err := encoding.FromMatch(name, match, operands)
	Expect(err).ToNot(HaveOccurred())
	return f
}

func rs1(excludes ...uint64) *encoding.Operand {
	return encoding.NewOperand("rs1", bits.MustParseLocation("16-12"), encoding.WithExcludes(excludes...))
}

func def(name, ext string, f *encoding.Format, hints ...string) isa.Def {
	return isa.Def{
		Name:      name,
		DefinedBy: cond.MustExt(ext, ""),
		Formats:   []isa.CondFormat{{Cond: cond.True{}, Format: f}},
		Hints:     hints,
	}
}

var _ = Describe("Detector", func() {
	const open = "000-----000000000001"

	var (
		oracle *fakeOracle
		set    *isa.Set
		a, b   *isa.Instruction
	)

	build := func(defs ...isa.Def) {
		var err error
		set, err = isa.NewSet(defs)
		Expect(err).ToNot(HaveOccurred())
		a, _ = set.Lookup("a")
		b, _ = set.Lookup("b")
	}

	BeforeEach(func() {
		oracle = &fakeOracle{}
	})

	Context("with identical masks and no exclusions", func() {
		BeforeEach(func() {
			build(
				def("a", "Xa", mustFormat("a", open, rs1())),
				def("b", "Xb", mustFormat("b", open, rs1())),
			)
		})

		It("reports nothing when the instructions cannot coexist", func() {
			d := conflict.NewDetector(set, oracle)
			Expect(d.Conflicts(a.ID, 32)).To(BeEmpty())
			Expect(d.Conflicts(b.ID, 32)).To(BeEmpty())

			rep, err := d.Scan(context.Background(), conflict.Config{Width: 32, NumWorkers: 2})
			Expect(err).ToNot(HaveOccurred())
			Expect(rep.Findings).To(BeEmpty())
			Expect(rep.Checked).To(Equal(int64(2)))
		})

		It("reports one conflict per directed pair when they can coexist", func() {
			oracle.sat = true
			d := conflict.NewDetector(set, oracle)
			Expect(d.Conflicts(a.ID, 32)).To(Equal([]isa.ID{b.ID}))
			Expect(d.Conflicts(b.ID, 32)).To(Equal([]isa.ID{a.ID}))

			rep, err := d.Scan(context.Background(), conflict.Config{Width: 32})
			Expect(err).ToNot(HaveOccurred())
			Expect(rep.Findings).To(HaveLen(2))
			Expect(rep.Findings[0].Inst).To(Equal("a"))
			Expect(rep.Findings[0].Other).To(Equal("b"))
			Expect(rep.Findings[0].InstMatch).To(Equal(open))
			Expect(rep.Findings[1].Inst).To(Equal("b"))
			Expect(rep.RunID).ToNot(BeEmpty())
		})

		It("memoizes results per instruction and width", func() {
			oracle.sat = true
			d := conflict.NewDetector(set, oracle)
			_, err := d.Conflicts(a.ID, 32)
			Expect(err).ToNot(HaveOccurred())
			calls := oracle.calls.Load()

			_, err = d.Conflicts(a.ID, 32)
			Expect(err).ToNot(HaveOccurred())
			Expect(oracle.calls.Load()).To(Equal(calls))

			_, err = d.Conflicts(a.ID, 64)
			Expect(err).ToNot(HaveOccurred())
			Expect(oracle.calls.Load()).To(BeNumerically(">", calls))
		})
	})

	It("exempts hints in both directions", func() {
		oracle.sat = true
		build(
			def("a", "Xa", mustFormat("a", open, rs1()), "b"),
			def("b", "Xb", mustFormat("b", open, rs1())),
		)
		d := conflict.NewDetector(set, oracle)
		Expect(d.Conflicts(a.ID, 32)).To(BeEmpty())
		Expect(d.Conflicts(b.ID, 32)).To(BeEmpty())
	})

	It("treats an encoding that only exists at a forbidden value as distinct", func() {
		oracle.sat = true
		build(
			def("a", "Xa", mustFormat("a", "00000000000000000001")),
			def("b", "Xb", mustFormat("b", open, rs1(0))),
		)
		d := conflict.NewDetector(set, oracle)
		Expect(d.Conflicts(a.ID, 32)).To(BeEmpty())
		Expect(d.Conflicts(b.ID, 32)).To(BeEmpty())
	})

	It("skips instructions not defined at the width", func() {
		oracle.sat = true
		other := def("b", "Xb", mustFormat("b", open, rs1()))
		other.Base = 64
		build(def("a", "Xa", mustFormat("a", open, rs1())), other)

		d := conflict.NewDetector(set, oracle)
		Expect(d.Conflicts(a.ID, 32)).To(BeEmpty())
		Expect(d.Conflicts(b.ID, 32)).To(BeEmpty())
		Expect(d.Conflicts(a.ID, 64)).To(Equal([]isa.ID{b.ID}))
	})

	Context("with an instruction that has no format at one XLEN", func() {
		BeforeEach(func() {
			rv32 := def("b", "Xb", mustFormat("b", open, rs1()))
			rv32.Formats[0].Cond = cond.XLen{Width: 32}
			build(def("a", "Xa", mustFormat("a", open, rs1())), rv32)
		})

		It("scans normally where the format applies", func() {
			d := conflict.NewDetector(set, cond.NewSATOracle(nil))
			rep, err := d.Scan(context.Background(), conflict.Config{Width: 32, NumWorkers: 2})
			Expect(err).ToNot(HaveOccurred())
			Expect(rep.Findings).To(HaveLen(2))
		})

		It("fails instead of skipping it", func() {
			d := conflict.NewDetector(set, cond.NewSATOracle(nil))

			_, err := d.Format(b.ID, 64)
			var nfe *isa.NoFormatError
			Expect(errors.As(err, &nfe)).To(BeTrue())
			Expect(nfe.Inst).To(Equal("b"))
			Expect(nfe.XLen).To(Equal(uint32(64)))

			// as the other side of a pair too
			_, err = d.Conflicts(a.ID, 64)
			Expect(errors.As(err, &nfe)).To(BeTrue())

			rep, err := d.Scan(context.Background(), conflict.Config{Width: 64, NumWorkers: 2})
			Expect(errors.As(err, &nfe)).To(BeTrue())
			Expect(rep).To(BeNil())
		})
	})

	It("rejects an XLEN other than 32 or 64", func() {
		build(def("a", "Xa", mustFormat("a", open, rs1())))
		d := conflict.NewDetector(set, oracle)

		_, err := d.Scan(context.Background(), conflict.Config{Width: 16})
		var we *conflict.WidthError
		Expect(errors.As(err, &we)).To(BeTrue())
		Expect(we.Width).To(Equal(uint32(16)))

		_, err = d.Conflicts(a.ID, 128)
		Expect(errors.As(err, &we)).To(BeTrue())
	})

	It("fails hard when both instructions share a defining condition", func() {
		oracle.sat = true
		build(
			def("a", "Xa", mustFormat("a", open, rs1())),
			def("b", "Xa", mustFormat("b", open, rs1())),
		)
		d := conflict.NewDetector(set, oracle)
		_, err := d.Conflicts(a.ID, 32)
		var ce *conflict.ConflictError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Inst).To(Equal("a"))
		Expect(ce.Other).To(Equal("b"))

		_, err = d.Scan(context.Background(), conflict.Config{Width: 32, NumWorkers: 1})
		Expect(errors.As(err, &ce)).To(BeTrue())
	})

	Context("with the compressed extension database", func() {
		var db *schema.Database

		BeforeEach(func() {
			var err error
			db, err = schema.Load("../schema/testdata/rvc.yaml")
			Expect(err).ToNot(HaveOccurred())
		})

		It("finds no conflicts at either XLEN", func() {
			d := conflict.NewDetector(db.Set, db.Oracle())
			for _, w := range []uint32{32, 64} {
				rep, err := d.Scan(context.Background(), conflict.Config{Width: w, NumWorkers: 4})
				Expect(err).ToNot(HaveOccurred())
				Expect(rep.Findings).To(BeEmpty(), "xlen %d", w)
			}
		})

		It("relies on the oracle for Zcd and Zcmp", func() {
			fsdsp, _ := db.Set.Lookup("c.fsdsp")
			push, _ := db.Set.Lookup("cm.push")
			d := conflict.NewDetector(db.Set, db.Oracle())

			f1, err := d.Format(fsdsp.ID, 32)
			Expect(err).ToNot(HaveOccurred())
			f2, err := d.Format(push.ID, 32)
			Expect(err).ToNot(HaveOccurred())
			Expect(encoding.Indistinguishable(f1, f2)).To(BeTrue())
			Expect(cond.Compatible(db.Oracle(), fsdsp.DefinedBy, push.DefinedBy)).To(BeFalse())
		})

		It("reports the conflict once the catalog rules are dropped", func() {
			d := conflict.NewDetector(db.Set, cond.NewSATOracle(nil))
			rep, err := d.Scan(context.Background(), conflict.Config{Width: 32})
			Expect(err).ToNot(HaveOccurred())

			var pairs []string
			for _, f := range rep.Findings {
				pairs = append(pairs, f.Inst+"/"+f.Other)
			}
			Expect(pairs).To(ContainElements("c.fsdsp/cm.push", "cm.push/c.fsdsp"))
		})
	})
})
