package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/r2k-toolchain/mips/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Default", func() {
	It("matches §4.8's defaults", func() {
		cfg := config.Default()
		Expect(cfg.EnableDelaySlots).To(BeFalse())
		Expect(cfg.MemoryPageSize).To(Equal(uint32(1 << 20)))
		Expect(cfg.Validate()).To(Succeed())
	})
})

var _ = Describe("Load/Save round trip", func() {
	It("overlays only the fields present in the file", func() {
		dir := filepath.Join(os.TempDir(), "r2k-config-test")
		Expect(os.MkdirAll(dir, 0755)).To(Succeed())
		path := filepath.Join(dir, "r2k.json")
		Expect(os.WriteFile(path, []byte(`{"enable_delay_slots": true}`), 0644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.EnableDelaySlots).To(BeTrue())
		Expect(cfg.MemoryPageSize).To(Equal(uint32(1 << 20)))
	})

	It("round-trips through Save", func() {
		dir := filepath.Join(os.TempDir(), "r2k-config-test")
		Expect(os.MkdirAll(dir, 0755)).To(Succeed())
		path := filepath.Join(dir, "roundtrip.json")

		cfg := config.Default()
		cfg.StdinBufferSize = 8192
		Expect(cfg.Save(path)).To(Succeed())

		reloaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(reloaded.StdinBufferSize).To(Equal(8192))
	})
})

var _ = Describe("Validate", func() {
	It("rejects a non-power-of-two page size", func() {
		cfg := config.Default()
		cfg.MemoryPageSize = 3
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("rejects a zero stdin buffer size", func() {
		cfg := config.Default()
		cfg.StdinBufferSize = 0
		Expect(cfg.Validate()).To(HaveOccurred())
	})
})
