package live

import (
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/toast"
)

// Metrics receives live channel and notification events.
// Implementations must be safe for concurrent use.
type Metrics interface {
	toast.Observer
	flash.Observer

	SessionOpened()
	SessionClosed()
	FrameSent(t protocol.FrameType)
	FrameReceived(t protocol.FrameType)
}

type nopMetrics struct{}

func (nopMetrics) ToastShown(toast.Kind) {}
func (nopMetrics) ToastHidden() {}
func (nopMetrics) FlashTransition(int, flash.State) {}
func (nopMetrics) SessionOpened() {}
func (nopMetrics) SessionClosed() {}
func (nopMetrics) FrameSent(protocol.FrameType) {}
func (nopMetrics) FrameReceived(protocol.FrameType) {}
