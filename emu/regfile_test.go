package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = &emu.RegFile{}
	})

	It("should read back written values", func() {
		rf.Write(5, 0xDEADBEEF)
		Expect(rf.Read(5)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should always read x0 as zero", func() {
		Expect(rf.Read(0)).To(Equal(uint32(0)))
	})

	It("should discard writes to x0", func() {
		rf.Write(0, 0x12345678)
		Expect(rf.Read(0)).To(Equal(uint32(0)))
		Expect(rf.X[0]).To(Equal(uint32(0)))
	})

	It("should keep registers independent", func() {
		rf.Write(1, 1)
		rf.Write(31, 31)
		Expect(rf.Read(1)).To(Equal(uint32(1)))
		Expect(rf.Read(31)).To(Equal(uint32(31)))
		Expect(rf.Read(2)).To(Equal(uint32(0)))
	})

	It("should ignore out-of-range register numbers", func() {
		rf.Write(40, 7)
		Expect(rf.Read(40)).To(Equal(uint32(0)))
	})
})
