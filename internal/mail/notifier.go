package mail

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Arafat-alim/shoporbit-backend/internal/order"
	"github.com/Arafat-alim/shoporbit-backend/internal/user"
)

// OrderNotifier mails customers on order milestones. Sends run in a
// goroutine so a slow relay never blocks the request path.
type OrderNotifier struct {
	sender Sender
	users  user.Repository
	logger *zap.Logger
}

func NewOrderNotifier(sender Sender, users user.Repository, logger *zap.Logger) *OrderNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderNotifier{sender: sender, users: users, logger: logger}
}

func (n *OrderNotifier) OrderCreated(ord order.Order) {
	subject := fmt.Sprintf("Order #%d placed", ord.ID)
	n.send(ord, subject, orderBody(ord, "We have received your order."))
}

func (n *OrderNotifier) PaymentCaptured(ord order.Order) {
	subject := fmt.Sprintf("Payment received for order #%d", ord.ID)
	n.send(ord, subject, orderBody(ord, "Your payment has been received and your order is confirmed."))
}

func (n *OrderNotifier) send(ord order.Order, subject, body string) {
	u, err := n.users.GetByID(ord.UserID)
	if err != nil {
		n.logger.Warn("mail skipped, user lookup failed",
			zap.Int("orderId", ord.ID), zap.Int("userId", ord.UserID), zap.Error(err))
		return
	}

	go func() {
		if err := n.sender.Send(u.Email, subject, body); err != nil {
			n.logger.Error("order mail failed",
				zap.Int("orderId", ord.ID), zap.String("to", u.Email), zap.Error(err))
		}
	}()
}

func orderBody(ord order.Order, lead string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>", lead)
	b.WriteString("<ul>")
	for _, it := range ord.Items {
		fmt.Fprintf(&b, "<li>%s x %d - %.2f</li>", it.Name, it.Quantity, it.Price*float64(it.Quantity))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p>Items: %.2f<br>Shipping: %.2f<br>Tax: %.2f<br><strong>Total: %.2f</strong></p>",
		ord.ItemsPrice, ord.ShippingPrice, ord.TaxPrice, ord.TotalPrice)
	return b.String()
}
