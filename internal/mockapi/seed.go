package mockapi

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/five82/shopdeck/internal/backend"
	"github.com/five82/shopdeck/internal/orderstatus"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Users []struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
	Categories []struct {
		ID          int64  `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Active      bool   `yaml:"active"`
	} `yaml:"categories"`
	Products []struct {
		ID          int64  `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Stock       int    `yaml:"stock"`
		CategoryID  int64  `yaml:"category_id"`
		ImageURL    string `yaml:"image_url"`
		Active      bool   `yaml:"active"`
	} `yaml:"products"`
	Customers []struct {
		ID        int64  `yaml:"id"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Email     string `yaml:"email"`
		Phone     string `yaml:"phone"`
		Address   string `yaml:"address"`
		Active    bool   `yaml:"active"`
		AgeHours  int    `yaml:"age_hours"`
	} `yaml:"customers"`
	Orders []struct {
		ID            int64  `yaml:"id"`
		CustomerID    int64  `yaml:"customer_id"`
		Status        string `yaml:"status"`
		PaymentMethod string `yaml:"payment_method"`
		Note          string `yaml:"note"`
		AgeHours      int    `yaml:"age_hours"`
		Items         []struct {
			ProductID int64 `yaml:"product_id"`
			Quantity  int   `yaml:"quantity"`
		} `yaml:"items"`
	} `yaml:"orders"`
	Settings map[string]any `yaml:"settings"`
}

// NewStore builds a store from YAML fixtures. Nil data loads the embedded seed.
// Record ages are relative to now so the dashboard always has recent activity.
func NewStore(data []byte, now func() time.Time) (*Store, error) {
	if data == nil {
		data = defaultSeed
	}
	if now == nil {
		now = time.Now
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	s := &Store{now: now, settings: map[string]any{}}
	start := now()
	ago := func(hours int) backend.Timestamp {
		return backend.Timestamp{Time: start.Add(-time.Duration(hours) * time.Hour)}
	}

	for _, u := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		s.users = append(s.users, user{email: strings.ToLower(u.Email), hash: hash, role: strings.ToUpper(u.Role)})
	}

	for _, c := range seed.Categories {
		s.categories = append(s.categories, backend.Category{
			ID:          c.ID,
			Name:        c.Name,
			Slug:        slugify(c.Name),
			Description: c.Description,
			Active:      c.Active,
			CreatedAt:   ago(24 * 90),
		})
		s.nextCategory = max(s.nextCategory, c.ID)
	}

	for _, p := range seed.Products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("product %d price: %w", p.ID, err)
		}
		categoryID := p.CategoryID
		s.products = append(s.products, backend.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
			CategoryID:  &categoryID,
			Active:      p.Active,
			CreatedAt:   ago(24 * 60),
		})
		s.nextProduct = max(s.nextProduct, p.ID)
	}

	for _, c := range seed.Customers {
		s.customers = append(s.customers, backend.Customer{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			FullName:  strings.TrimSpace(c.FirstName + " " + c.LastName),
			Email:     c.Email,
			Phone:     c.Phone,
			Address:   c.Address,
			Active:    c.Active,
			CreatedAt: ago(c.AgeHours),
		})
	}

	for _, o := range seed.Orders {
		status := orderstatus.Parse(o.Status)
		if !status.Known() {
			return nil, fmt.Errorf("order %d: unknown status %q", o.ID, o.Status)
		}
		order := backend.Order{
			ID:            o.ID,
			Status:        status,
			PaymentMethod: o.PaymentMethod,
			CustomerID:    o.CustomerID,
			Note:          o.Note,
			CreatedAt:     ago(o.AgeHours),
			TotalAmount:   decimal.Zero,
		}
		if i := s.customerIndex(o.CustomerID); i >= 0 {
			order.CustomerName = s.customers[i].FullName
			order.DeliveryAddress = s.customers[i].Address
		}
		for _, it := range o.Items {
			i := s.productIndex(it.ProductID)
			if i < 0 {
				return nil, fmt.Errorf("order %d: unknown product %d", o.ID, it.ProductID)
			}
			p := s.products[i]
			line := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			order.Items = append(order.Items, backend.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
				LineTotal:   line,
			})
			order.TotalAmount = order.TotalAmount.Add(line)
			s.nextMovement++
			s.movements = append(s.movements, backend.StockMovement{
				ID:            s.nextMovement,
				ProductID:     p.ID,
				Type:          backend.MovementOrderCreate,
				Delta:         -it.Quantity,
				BeforeStock:   p.Stock + it.Quantity,
				AfterStock:    p.Stock,
				ReferenceType: "ORDER",
				ReferenceID:   fmt.Sprint(o.ID),
				Actor:         "system",
				CreatedAt:     order.CreatedAt,
			})
		}
		s.orders = append(s.orders, order)
	}

	for k, v := range seed.Settings {
		s.settings[k] = v
	}
	return s, nil
}

// authenticate checks credentials and returns the user's role.
func (s *Store) authenticate(email, password string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
			return "", false
		}
		return u.role, true
	}
	return "", false
}
