// Command seed fills a development database with fake catalog, customer,
// supplier and driver data plus one NCF range per receipt type.
package main

import (
	"flag"
	"fmt"
	"time"

	"go-pos-rd/internal/config"
	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/service"
	"go-pos-rd/pkg/database"
	"go-pos-rd/pkg/logger"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seeder struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	log   *zap.Logger
}

func main() {
	products := flag.Int("products", 60, "number of products")
	customers := flag.Int("customers", 40, "number of customers")
	suppliers := flag.Int("suppliers", 8, "number of suppliers")
	drivers := flag.Int("drivers", 4, "number of drivers")
	seed := flag.Uint64("seed", 0, "random seed (0 = random)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.ForEnv("development", "info").Fatal("load config", zap.Error(err))
	}
	log := logger.ForEnv(cfg.App.Env, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.ConnectDB(cfg.Database.Connection(), log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal("auto migrate", zap.Error(err))
	}
	if err := service.SeedAccessControl(repository.NewPrivilegeRepo(db), repository.NewRoleRepo(db), repository.NewUserRepo(db), service.DefaultAdmin, log); err != nil {
		log.Fatal("seed access control", zap.Error(err))
	}

	s := &seeder{db: db, faker: gofakeit.New(*seed), log: log}
	s.ncfSequences()
	s.catalog(*products)
	s.customers(*customers)
	s.suppliers(*suppliers)
	s.drivers(*drivers)
	log.Info("seed complete")
}

func (s *seeder) ncfSequences() {
	repo := repository.NewNcfSequenceRepo(s.db)
	expires := time.Now().AddDate(1, 0, 0)
	for _, t := range []model.NcfType{model.NcfCreditoFiscal, model.NcfConsumo, model.NcfNotaCredito, model.NcfRegimenEsp, model.NcfGubernamental} {
		existing, err := repo.FindByType(t)
		if err != nil {
			s.log.Fatal("list ncf sequences", zap.Error(err))
		}
		if len(existing) > 0 {
			continue
		}
		seq := &model.NcfSequence{
			Type:          t,
			Series:        "B",
			Description:   "Rango de desarrollo",
			StartNumber:   1,
			CurrentNumber: 0,
			MaxNumber:     1000,
			ExpiresAt:     &expires,
			IsActive:      true,
		}
		seq.CreatedBy = "seed"
		if err := repo.Create(seq); err != nil {
			s.log.Fatal("create ncf sequence", zap.String("type", string(t)), zap.Error(err))
		}
	}
	s.log.Info("ncf sequences ready")
}

func (s *seeder) catalog(n int) {
	categories := repository.NewCategoryRepo(s.db)
	products := repository.NewProductRepo(s.db)

	var ids []uuid.UUID
	for _, name := range []string{"Bebidas", "Colmado", "Limpieza", "Ferretería", "Electrónica", "Cuidado personal"} {
		if c, err := categories.FindByName(name); err == nil {
			ids = append(ids, c.ID)
			continue
		}
		c := &model.Category{Name: name, Description: s.faker.Sentence(6)}
		c.CreatedBy = "seed"
		if err := categories.Create(c); err != nil {
			s.log.Fatal("create category", zap.String("name", name), zap.Error(err))
		}
		ids = append(ids, c.ID)
	}

	created := 0
	for i := 0; i < n; i++ {
		price := decimal.NewFromFloat(s.faker.Price(25, 5000)).Round(2)
		cost := price.Mul(decimal.NewFromFloat(s.faker.Float64Range(0.5, 0.8))).Round(2)
		barcode := s.faker.DigitN(13)
		categoryID := ids[s.faker.Number(0, len(ids)-1)]
		p := &model.Product{
			SKU:        fmt.Sprintf("SKU-%05d", i+1),
			Barcode:    &barcode,
			Name:       s.faker.ProductName(),
			CategoryID: &categoryID,
			Price:      price,
			Cost:       cost,
			Stock:      s.faker.Number(0, 200),
			MinStock:   s.faker.Number(5, 20),
			Unit:       "UND",
			Taxable:    s.faker.Number(0, 9) > 1,
			IsActive:   true,
		}
		p.CreatedBy = "seed"
		if err := products.Create(p); err != nil {
			if repository.IsDuplicate(err) {
				continue
			}
			s.log.Fatal("create product", zap.Error(err))
		}
		created++
	}
	s.log.Info("products seeded", zap.Int("created", created))
}

func (s *seeder) customers(n int) {
	repo := repository.NewCustomerRepo(s.db)
	created := 0
	for i := 0; i < n; i++ {
		c := &model.Customer{
			Name:        s.faker.Name(),
			Email:       s.faker.Email(),
			Phone:       s.phone(),
			Address:     s.faker.Street() + ", " + s.faker.City(),
			CreditLimit: decimal.Zero,
			Balance:     decimal.Zero,
			IsActive:    true,
		}
		switch s.faker.Number(0, 2) {
		case 0:
			doc := "1" + s.faker.DigitN(8)
			c.DocumentType, c.DocumentNumber = model.DocRNC, &doc
			c.Name = s.faker.Company()
			c.CreditLimit = decimal.NewFromInt(int64(s.faker.Number(1, 10)) * 10000)
		case 1:
			doc := "0" + s.faker.DigitN(10)
			c.DocumentType, c.DocumentNumber = model.DocCedula, &doc
		default:
			c.DocumentType = model.DocNone
		}
		c.CreatedBy = "seed"
		if err := repo.Create(c); err != nil {
			if repository.IsDuplicate(err) {
				continue
			}
			s.log.Fatal("create customer", zap.Error(err))
		}
		created++
	}
	s.log.Info("customers seeded", zap.Int("created", created))
}

func (s *seeder) suppliers(n int) {
	repo := repository.NewSupplierRepo(s.db)
	created := 0
	for i := 0; i < n; i++ {
		sup := &model.Supplier{
			Name:        s.faker.Company() + " SRL",
			RNC:         "1" + s.faker.DigitN(8),
			ContactName: s.faker.Name(),
			Phone:       s.phone(),
			Email:       s.faker.Email(),
			Address:     s.faker.Street() + ", " + s.faker.City(),
			IsActive:    true,
		}
		sup.CreatedBy = "seed"
		if err := repo.Create(sup); err != nil {
			if repository.IsDuplicate(err) {
				continue
			}
			s.log.Fatal("create supplier", zap.Error(err))
		}
		created++
	}
	s.log.Info("suppliers seeded", zap.Int("created", created))
}

func (s *seeder) drivers(n int) {
	repo := repository.NewDriverRepo(s.db)
	for i := 0; i < n; i++ {
		d := &model.Driver{
			Name:     s.faker.Name(),
			Phone:    s.phone(),
			Vehicle:  s.faker.CarMaker() + " " + s.faker.CarModel(),
			Plate:    s.faker.LetterN(1) + s.faker.DigitN(6),
			IsActive: true,
		}
		d.CreatedBy = "seed"
		if err := repo.Create(d); err != nil {
			s.log.Fatal("create driver", zap.Error(err))
		}
	}
	s.log.Info("drivers seeded", zap.Int("created", n))
}

func (s *seeder) phone() string {
	areas := []string{"809", "829", "849"}
	return areas[s.faker.Number(0, 2)] + s.faker.DigitN(7)
}
