package app

import (
	"time"

	"taller/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Services are the core services sharing one pool.
type Services struct {
	Clientes   core.ClienteService
	Orders     core.OrderService
	Accounting core.AccountingService
	WhatsApp   core.WhatsAppService
	Users      core.UserService
}

// NewServices wires every core service against pool. taller and loc feed
// message rendering and date bucketing.
func NewServices(pool *pgxpool.Pool, taller string, loc *time.Location) Services {
	orders := core.NewOrderService(pool)
	return Services{
		Clientes:   core.NewClienteService(pool),
		Orders:     orders,
		Accounting: core.NewAccountingService(pool, core.NewDocumentService(pool), loc),
		WhatsApp:   core.NewWhatsAppService(pool, orders, taller, loc),
		Users:      core.NewUserService(pool),
	}
}

// Deps returns the Deps for NewAppService without cache, events or sender.
func (s Services) Deps() Deps {
	return Deps{
		Clientes:   s.Clientes,
		Orders:     s.Orders,
		Accounting: s.Accounting,
		WhatsApp:   s.WhatsApp,
		Users:      s.Users,
	}
}
