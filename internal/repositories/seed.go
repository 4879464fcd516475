package repositories

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"

	"billingx/internal/models"
)

// Seed is the fixture set a MemoryStore is built from.
type Seed struct {
	Purchases  map[models.SkuType][]models.Purchase
	SkuDetails map[models.SkuType][]models.SkuDetails
}

// seedFile is the on-disk fixture layout. Records keep their raw textual
// encoding so receipts reach callers byte-for-byte.
type seedFile struct {
	Purchases []purchaseFixture `yaml:"purchases" toml:"purchases"`
	Skus      []skuFixture      `yaml:"skus" toml:"skus"`
}

type purchaseFixture struct {
	Type      string `yaml:"type" toml:"type"`
	JSON      string `yaml:"json" toml:"json"`
	Signature string `yaml:"signature" toml:"signature"`
}

type skuFixture struct {
	Type string `yaml:"type" toml:"type"`
	JSON string `yaml:"json" toml:"json"`
}

// LoadSeed reads fixtures from a YAML file, or TOML when the extension is
// .toml. An empty path yields DefaultSeed.
func LoadSeed(path string) (Seed, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}

	var raw seedFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return Seed{}, fmt.Errorf("parse seed %s: %w", filepath.Base(path), err)
	}
	return raw.build()
}

func (f seedFile) build() (Seed, error) {
	seed := newSeed()
	for i, rec := range f.Purchases {
		skuType, err := models.ParseSkuType(rec.Type)
		if err != nil {
			return Seed{}, fmt.Errorf("purchase #%d: %w", i, err)
		}
		p, err := models.NewPurchase(rec.JSON, rec.Signature)
		if err != nil {
			return Seed{}, fmt.Errorf("purchase #%d: %w", i, err)
		}
		seed.Purchases[skuType] = append(seed.Purchases[skuType], p)
	}
	for i, rec := range f.Skus {
		skuType, err := models.ParseSkuType(rec.Type)
		if err != nil {
			return Seed{}, fmt.Errorf("sku #%d: %w", i, err)
		}
		d, err := models.NewSkuDetails(rec.JSON)
		if err != nil {
			return Seed{}, fmt.Errorf("sku #%d: %w", i, err)
		}
		if d.Type != skuType {
			return Seed{}, fmt.Errorf("sku #%d: %w: %s declared %q but encodes %q", i, ErrSeedTypeMismatch, d.SKU, skuType, d.Type)
		}
		seed.SkuDetails[skuType] = append(seed.SkuDetails[skuType], d)
	}
	return seed, nil
}

// ErrSeedTypeMismatch means a fixture's declared type disagrees with its JSON.
var ErrSeedTypeMismatch = errors.New("seed type mismatch")

func newSeed() Seed {
	return Seed{
		Purchases:  make(map[models.SkuType][]models.Purchase),
		SkuDetails: make(map[models.SkuType][]models.SkuDetails),
	}
}

// DefaultSeed returns the canned fixtures used when no seed file is
// configured: two subscriptions and two one-time purchases, plus product
// details for two subscriptions and one in-app product.
func DefaultSeed() Seed {
	f := seedFile{
		Purchases: []purchaseFixture{
			{"subs", defaultFooPurchase, "debug-signature-com.foo.package.sku-subs"},
			{"subs", defaultBarPurchase, "debug-signature-com.bar.package.sku-subs"},
			{"inapp", defaultFooPurchase, "debug-signature-com.foo.package.sku-inapp"},
			{"inapp", defaultBarPurchase, "debug-signature-com.bar.package.sku-inapp"},
		},
		Skus: []skuFixture{
			{"subs", `{"productId":"com.foo.package.sku","type":"subs","price":"$4.99","price_amount_micros":"4990000","price_currency_code":"USD","title":"Foo","description":"So much Foo","subscriptionPeriod":"P1W","freeTrialPeriod":"P1W"}`},
			{"subs", `{"productId":"com.bar.package.sku","type":"subs","price":"$9.99","price_amount_micros":"9990000","price_currency_code":"USD","title":"Bar","description":"So much Bar","subscriptionPeriod":"P1M"}`},
			{"inapp", `{"productId":"com.baz.package.sku","type":"inapp","price":"$14.99","price_amount_micros":"14990000","price_currency_code":"USD","title":"Baz","description":"So much Baz"}`},
		},
	}

	seed, err := f.build()
	if err != nil {
		panic(fmt.Sprintf("default seed: %v", err))
	}
	return seed
}

const (
	defaultFooPurchase = `{"orderId":"foo-1234","packageName":"com.foo.package","productId":"com.foo.package.sku","autoRenewing":true,"purchaseTime":"1514764800000","token":"1234567890"}`
	defaultBarPurchase = `{"orderId":"bar-1234","packageName":"com.bar.package","productId":"com.bar.package.sku","autoRenewing":false,"purchaseTime":"1514764800000","purchaseToken":"0987654321"}`
)
