package cmd

import (
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"myeidcore/apdu"
	"myeidcore/keyfile"
	"myeidcore/virtualcard"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the built-in scenario suite against a fresh virtual card",
	Long: `Exercise RSA sign/verify, RSA split decipher, bad-padding rejection, and
ECDH agreement end to end against an in-process virtual card, reporting
pass/fail for each scenario. Does not touch a live reader.`,
	Run: runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

type scenario struct {
	name string
	run  func() error
}

func runSelftest(cmd *cobra.Command, args []string) {
	scenarios := []scenario{
		{"RSA sign then verify (512-bit, raw digest)", scenarioRSASignVerify},
		{"RSA sign rejects wrong-length input", scenarioRSASignLengthMismatch},
		{"ECDH agreement matches host computation (P-256)", scenarioECDH},
		{"RSA split decipher matches single-shot (2048-bit)", scenarioSplitDecipher},
		{"RSA decipher rejects malformed PKCS#1 type-2 padding", scenarioBadPadding},
		{"GENERATE KEY and GET DATA agree on EC public key", scenarioECKeyAgreement},
	}

	fmt.Println()
	failures := 0
	for _, s := range scenarios {
		err := s.run()
		printScenarioResult(s.name, err)
		if err != nil {
			failures++
		}
	}
	fmt.Println()
	if failures == 0 {
		printSuccess(fmt.Sprintf("%d/%d scenarios passed", len(scenarios), len(scenarios)))
	} else {
		printError(fmt.Sprintf("%d/%d scenarios failed", failures, len(scenarios)))
	}
}

func printScenarioResult(name string, err error) {
	if err == nil {
		fmt.Printf("  [PASS] %s\n", name)
		return
	}
	fmt.Printf("  [FAIL] %s: %v\n", name, err)
}

func newSECmd(p1, p2, algByte byte, fileID uint16) []byte {
	data := crdoTag(0x80, []byte{algByte})
	return append(data, crdoTag(0x81, []byte{byte(fileID >> 8), byte(fileID)})...)
}

func drain(c *virtualcard.Card, sw uint16) ([]byte, error) {
	if sw&0xFF00 != 0x6100 {
		return nil, fmt.Errorf("expected response-ready SW, got %04X", sw)
	}
	data, finalSW := c.Transmit(0x00, 0xC0, 0x00, 0x00, nil)
	if finalSW != uint16(apdu.SWOK) {
		return nil, fmt.Errorf("GET RESPONSE failed: SW=%04X", finalSW)
	}
	return data, nil
}

func scenarioRSASignVerify() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B01, keyfile.TypeRSA, 512)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xB6, newSECmd(0x41, 0xB6, 0x00, 0x4B01))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}

	digest := make([]byte, 64)
	for i := range digest {
		digest[i] = byte(i + 1)
	}
	_, sw = c.Transmit(0x00, 0x2A, 0x9E, 0x9A, digest)
	sig, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)
	got := new(big.Int).Exp(new(big.Int).SetBytes(sig), e, n)
	want := new(big.Int).SetBytes(digest)
	if got.Cmp(want) != 0 {
		return fmt.Errorf("signature does not verify")
	}
	return nil
}

func scenarioRSASignLengthMismatch() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B01, keyfile.TypeRSA, 512)
	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	if _, err := drain(c, sw); err != nil {
		return err
	}

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xB6, newSECmd(0x41, 0xB6, 0x00, 0x4B01))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}

	_, sw = c.Transmit(0x00, 0x2A, 0x9E, 0x9A, make([]byte, 20))
	if sw != uint16(apdu.SWConditionsNotSatisfied) {
		return fmt.Errorf("expected SW=6985, got %04X", sw)
	}
	return nil
}

func scenarioECDH() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B02, keyfile.TypeNISTEC, 256)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	if _, err := drain(c, sw); err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	_, sw = c.Transmit(0x00, 0xCA, 0x01, 0x86, nil)
	pubWrapped, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("get data: %w", err)
	}
	point := pubWrapped[2:]
	cardX := new(big.Int).SetBytes(point[1:33])
	cardY := new(big.Int).SetBytes(point[33:65])

	peerPriv, peerX, peerY, err := elliptic.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xA4, newSECmd(0x41, 0xA4, 0x04, 0x4B02))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}

	peerPoint := append([]byte{0x04}, make([]byte, 64)...)
	peerX.FillBytes(peerPoint[1:33])
	peerY.FillBytes(peerPoint[33:65])
	template := crdoTag(0x7C, crdoTag(0x85, peerPoint))

	_, sw = c.Transmit(0x00, 0x86, 0x00, 0x00, template)
	cardSharedX, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("general authenticate: %w", err)
	}

	hostX, _ := elliptic.P256().ScalarMult(cardX, cardY, peerPriv)
	hostXBuf := make([]byte, 32)
	hostX.FillBytes(hostXBuf)

	if string(hostXBuf) != string(cardSharedX) {
		return fmt.Errorf("host and card shared secrets differ")
	}
	return nil
}

func scenarioSplitDecipher() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B03, keyfile.TypeRSA, 2048)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)

	plain := make([]byte, 256)
	plain[254], plain[255] = 0x12, 0x34
	ct := new(big.Int).Exp(new(big.Int).SetBytes(plain), e, n)
	ciphertext := make([]byte, 256)
	ct.FillBytes(ciphertext)

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xB8, newSECmd(0x41, 0xB8, 0x00, 0x4B03))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x00}, ciphertext...))
	singleShot, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("single-shot decipher: %w", err)
	}
	if string(singleShot) != string(plain) {
		return fmt.Errorf("single-shot decipher mismatch")
	}

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xB8, newSECmd(0x41, 0xB8, 0x00, 0x4B03))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x81}, ciphertext[:128]...))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("first half should return 9000 with no data, got %04X", sw)
	}
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x82}, ciphertext[128:]...))
	split, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("second half: %w", err)
	}
	if string(split) != string(plain) {
		return fmt.Errorf("split decipher mismatch")
	}
	return nil
}

func scenarioBadPadding() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B04, keyfile.TypeRSA, 2048)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	modulus, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	n := new(big.Int).SetBytes(modulus)
	e := big.NewInt(65537)

	block := make([]byte, 256)
	block[0], block[1], block[2] = 0x00, 0x02, 0x00
	ct := new(big.Int).Exp(new(big.Int).SetBytes(block), e, n)
	ciphertext := make([]byte, 256)
	ct.FillBytes(ciphertext)

	_, sw = c.Transmit(0x00, 0x22, 0x41, 0xB8, newSECmd(0x41, 0xB8, 0x02, 0x4B04))
	if sw != uint16(apdu.SWOK) {
		return fmt.Errorf("manage se: SW=%04X", sw)
	}
	_, sw = c.Transmit(0x80, 0x2A, 0x80, 0x86, append([]byte{0x00}, ciphertext...))
	if sw != uint16(apdu.SWConditionsNotSatisfied) {
		return fmt.Errorf("expected SW=6985, got %04X", sw)
	}
	return nil
}

func scenarioECKeyAgreement() error {
	c := virtualcard.NewCard()
	c.FS.CreateFile(0x4B05, keyfile.TypeNISTEC, 256)

	_, sw := c.Transmit(0x00, 0x46, 0x00, 0x00, nil)
	genResp, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	_, sw = c.Transmit(0x00, 0xCA, 0x01, 0x86, nil)
	getResp, err := drain(c, sw)
	if err != nil {
		return fmt.Errorf("get data: %w", err)
	}
	if string(genResp[2:]) != string(getResp[2:]) {
		return fmt.Errorf("GENERATE KEY and GET DATA disagree on public key bytes")
	}
	return nil
}
