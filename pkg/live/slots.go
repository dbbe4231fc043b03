package live

import (
	"github.com/medihome/storefront/pkg/flash"
	"github.com/medihome/storefront/pkg/protocol"
	"github.com/medihome/storefront/pkg/toast"
)

// toastSlot mirrors the toast controller's slot to the browser.
type toastSlot struct{ s *Session }

func (t toastSlot) Set(text string, style toast.Style) {
	t.s.enqueue(protocol.NewToast(text, style.Background, true))
}

// Clear hides the slot. The browser keeps the last text and colour so the
// fade-out shows what was there.
func (t toastSlot) Clear() {
	t.s.enqueue(protocol.NewToast("", "", false))
}

// flashDisplay mirrors flash item transitions to the browser.
type flashDisplay struct{ s *Session }

func (d flashDisplay) Show(index int) {
	d.s.enqueue(protocol.NewFlash(index, flash.StateShown.String()))
}

func (d flashDisplay) Hide(index int) {
	d.s.enqueue(protocol.NewFlash(index, flash.StateHiding.String()))
}

func (d flashDisplay) Remove(index int) {
	d.s.enqueue(protocol.NewFlash(index, flash.StateRemoved.String()))
}
