package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-sklad/internal/docstore"
)

func (h *Handler) StreamWarehouse(c *gin.Context) {
	h.stream(c, "watchWarehouse", h.engine.WatchWarehouse)
}

func (h *Handler) StreamPurchases(c *gin.Context) {
	h.stream(c, "watchPurchases", h.engine.WatchPurchases)
}

func (h *Handler) StreamSales(c *gin.Context) {
	h.stream(c, "watchSales", h.engine.WatchSales)
}

// stream sends every snapshot of a subscription as a server-sent "snapshot"
// event until the client disconnects.
func (h *Handler) stream(c *gin.Context, op string, watch func(context.Context) (*docstore.Subscription, error)) {
	ctx := c.Request.Context()
	sub, err := watch(ctx)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	defer sub.Cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.Events():
			if !ok {
				return
			}
			if snap.Err != nil {
				c.SSEvent("error", snap.Err.Error())
				c.Writer.Flush()
				return
			}
			c.SSEvent("snapshot", flatten(snap.Docs))
			c.Writer.Flush()
		}
	}
}

// flatten renders documents the way they are read elsewhere: fields plus id.
func flatten(docs []docstore.Document) []docstore.Fields {
	out := make([]docstore.Fields, 0, len(docs))
	for _, d := range docs {
		f := make(docstore.Fields, len(d.Fields)+1)
		for k, v := range d.Fields {
			f[k] = v
		}
		f["id"] = d.ID
		out = append(out, f)
	}
	return out
}
