// mkmrf generates a synthetic machine-readable file for exercising the
// extract command against predictable input. It writes the CMS nested
// shape with a mix of code types, modifiers, payer entries, and a few
// deliberately unrecognized code types.
// Usage: go run ./cmd/mkmrf --out testdata/synthetic.json --items 500
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/gyeh/mrfscan/internal/model"
)

type payer struct {
	PayerName        string   `json:"payer_name"`
	PlanName         string   `json:"plan_name"`
	NegotiatedDollar *float64 `json:"standard_charge_dollar,omitempty"`
	Methodology      string   `json:"methodology,omitempty"`
}

type charge struct {
	Setting        string   `json:"setting"`
	GrossCharge    *float64 `json:"gross_charge,omitempty"`
	DiscountedCash *float64 `json:"discounted_cash,omitempty"`
	MinCharge      *float64 `json:"minimum,omitempty"`
	MaxCharge      *float64 `json:"maximum,omitempty"`
	Modifiers      []string `json:"modifiers,omitempty"`
	Payers         []payer  `json:"payers_information,omitempty"`
}

type codeEntry struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

type item struct {
	Description     string      `json:"description"`
	CodeInformation []codeEntry `json:"code_information"`
	StandardCharges []charge    `json:"standard_charges"`
}

type modifierInfo struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var codeTypeSpellings = []string{"CPT", "cpt", "HCPCS", "MS-DRG", "ICD-10", "NDC", "APC", "RC", "LOCAL"}

var payerNames = []string{"Aetna", "Cigna", "United Healthcare", "BCBS", "Humana"}

var modifierTokens = []string{"26", "TC", "LT", "RT", "50", "JW"}

func main() {
	out := flag.String("out", "testdata/synthetic.json", "output JSON file")
	items := flag.Int("items", 500, "number of standard charge items")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if _, err := f.WriteString(`{"hospital_name":"Synthetic General Hospital","hospital_location":["123 Main St"],"last_updated_on":"2026-01-15","version":"2.0.0","modifier_information":`); err != nil {
		fail(err)
	}
	if err := enc.Encode([]modifierInfo{
		{Code: "26", Description: "Professional component"},
		{Code: "TC", Description: "Technical component"},
	}); err != nil {
		fail(err)
	}
	if _, err := f.WriteString(`,"standard_charge_information":[`); err != nil {
		fail(err)
	}

	typeCounts := make(map[string]int)
	for i := 0; i < *items; i++ {
		if i > 0 {
			if _, err := f.WriteString(","); err != nil {
				fail(err)
			}
		}
		it := makeItem(rng, i)
		for _, ce := range it.CodeInformation {
			typeCounts[ce.Type]++
		}
		if err := enc.Encode(it); err != nil {
			fail(err)
		}
	}
	if _, err := f.WriteString("]}"); err != nil {
		fail(err)
	}

	fmt.Printf("Wrote %d items to %s\n", *items, *out)
	fmt.Println("Code type distribution:")
	for _, ct := range model.AllCodeTypes {
		if c := typeCounts[ct.Name]; c > 0 {
			fmt.Printf("  %-10s %d\n", ct.Name, c)
		}
	}
	for _, spelling := range codeTypeSpellings {
		if _, ok := model.CodeTypeByName(spelling); ok {
			continue
		}
		if c := typeCounts[spelling]; c > 0 {
			fmt.Printf("  %-10s %d (raw)\n", spelling, c)
		}
	}
}

func makeItem(rng *rand.Rand, n int) item {
	gross := float64(rng.Intn(900000)+1000) / 100
	cash := gross * 0.8
	it := item{
		Description: fmt.Sprintf("Synthetic procedure %04d", n),
		CodeInformation: []codeEntry{
			{Code: fmt.Sprintf("%05d", 10000+n), Type: codeTypeSpellings[rng.Intn(len(codeTypeSpellings))]},
		},
		StandardCharges: []charge{{
			Setting:        pick(rng, "inpatient", "outpatient", "both"),
			GrossCharge:    &gross,
			DiscountedCash: &cash,
		}},
	}
	if rng.Intn(4) == 0 {
		it.StandardCharges[0].Modifiers = []string{modifierTokens[rng.Intn(len(modifierTokens))]}
	}
	if rng.Intn(3) != 0 {
		npayers := rng.Intn(3) + 1
		for p := 0; p < npayers; p++ {
			neg := gross * (0.4 + rng.Float64()*0.4)
			it.StandardCharges[0].Payers = append(it.StandardCharges[0].Payers, payer{
				PayerName:        payerNames[rng.Intn(len(payerNames))],
				PlanName:         pick(rng, "PPO", "HMO", "Medicare Advantage"),
				NegotiatedDollar: &neg,
				Methodology:      "fee schedule",
			})
		}
	}
	return it
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "write: %v\n", err)
	os.Exit(1)
}
