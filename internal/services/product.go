package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/arinony/madarun/internal/db"
	"github.com/arinony/madarun/internal/models"
	"github.com/arinony/madarun/internal/validation"
	"gorm.io/gorm"
)

// ProductInput carries the caller-supplied fields of a product. UpdateProduct
// applies it with full-replace semantics, matching AddProduct field for field.
type ProductInput struct {
	Name         string
	Type         string
	MinStock     int
	InitialStock int
	Unite        string
	ImageURI     *string
}

// ProductService is the stock ledger: CRUD over products plus the
// stock-adjustment algorithm and the low-stock detection rule.
type ProductService struct {
	store    *db.Store
	notifier Notifier // optional; emissions are best-effort
}

func NewProductService(store *db.Store, notifier Notifier) *ProductService {
	return &ProductService{store: store, notifier: notifier}
}

func (in ProductInput) validate() error {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.NonNegativeInt("min_stock", in.MinStock, v)
	validation.NonNegativeInt("stock_actuel", in.InitialStock, v)
	if !v.Empty() {
		return &ValidationError{Fields: v}
	}
	return nil
}

// AddProduct validates and inserts a new product, returning the stored row.
func (s *ProductService) AddProduct(in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := models.Product{
		Name:        in.Name,
		Type:        in.Type,
		MinStock:    in.MinStock,
		StockActuel: in.InitialStock,
		Unite:       in.Unite,
		ImageURI:    in.ImageURI,
	}
	err := s.store.Update(func(tx *gorm.DB) error {
		return storeErr(tx.Create(&p).Error)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAllProducts lists products most recently created first.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	var out []models.Product
	err := s.store.View(func(tx *gorm.DB) error {
		return storeErr(tx.Order("id DESC").Find(&out).Error)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	var p models.Product
	err := s.store.View(func(tx *gorm.DB) error {
		return storeErr(tx.First(&p, id).Error)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct overwrites every caller-editable field of the product.
// Returns ErrNotFound when id is absent.
func (s *ProductService) UpdateProduct(id uint, in ProductInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return s.store.Update(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, id).Error; err != nil {
			return storeErr(err)
		}
		p.Name = in.Name
		p.Type = in.Type
		p.MinStock = in.MinStock
		p.StockActuel = in.InitialStock
		p.Unite = in.Unite
		p.ImageURI = in.ImageURI
		return storeErr(tx.Save(&p).Error)
	})
}

// UpdateStock persists an absolute total. The non-negative invariant holds at
// this boundary too, not only in AdjustStock.
func (s *ProductService) UpdateStock(id uint, newTotal int) error {
	if newTotal < 0 {
		return fmt.Errorf("%w: total %d", ErrNegativeStock, newTotal)
	}
	return s.store.Update(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, id).Error; err != nil {
			return storeErr(err)
		}
		return storeErr(tx.Model(&p).Update("stock_actuel", newTotal).Error)
	})
}

// DeleteProduct removes a product. Deleting an absent id is a no-op, so the
// call is idempotent. The activity log keeps its rows about the product: the
// log is free text on purpose and survives the deletion it describes.
func (s *ProductService) DeleteProduct(id uint) error {
	var removed *models.Product
	err := s.store.Update(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return storeErr(err)
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			return storeErr(err)
		}
		removed = &p
		return nil
	})
	if err != nil {
		return err
	}
	if removed != nil {
		s.emit("Suppression", fmt.Sprintf("%s a été supprimé.", removed.Name), models.KindWarning)
	}
	return nil
}

// AdjustStock applies a signed delta to the current quantity and returns the
// new total. The candidate is checked before any write, so a rejected
// adjustment has zero side effects. After the write a movement notification
// is always emitted, and a low-stock warning whenever the new total sits at
// or below min_stock. The threshold is re-evaluated on every adjustment, not
// only on the downward crossing.
func (s *ProductService) AdjustStock(id uint, delta int) (int, error) {
	var p models.Product
	err := s.store.Update(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return storeErr(err)
		}
		candidate := p.StockActuel + delta
		if candidate < 0 {
			return fmt.Errorf("%w: %d%+d", ErrNegativeStock, p.StockActuel, delta)
		}
		if err := tx.Model(&p).Update("stock_actuel", candidate).Error; err != nil {
			return storeErr(err)
		}
		p.StockActuel = candidate
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Best effort after commit: the stock mutation stands even if the log
	// write fails.
	kind := models.KindInfo
	if delta > 0 {
		kind = models.KindSuccess
	}
	s.emit("Mouvement Stock",
		fmt.Sprintf("%s: %+d %s. (Total: %d)", p.Name, delta, p.Unite, p.StockActuel), kind)
	if p.StockActuel <= p.MinStock {
		s.emit("Alerte Stock Bas",
			fmt.Sprintf("Critique: %s (%d)", p.Name, p.StockActuel), models.KindWarning)
	}
	return p.StockActuel, nil
}

func (s *ProductService) emit(title, message, kind string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Add(title, message, kind); err != nil {
		log.Printf("notification %q non enregistrée: %v", title, err)
	}
}
