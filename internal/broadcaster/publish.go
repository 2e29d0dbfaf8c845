// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package broadcaster

import "github.com/tomtom215/capalert/internal/models"

// PublishAlertNew emits alert.new. For a given alert identifier, the
// scheduler calls this before any later PublishAlertUpdate/Expire for the
// same alert, and this package preserves that call order per subscriber.
func (h *Hub) PublishAlertNew(alert models.Alert) {
	h.publish(TopicAlertNew, alert)
}

// PublishAlertUpdate emits alert.update.
func (h *Hub) PublishAlertUpdate(alert models.Alert) {
	h.publish(TopicAlertUpdate, alert)
}

// PublishAlertExpire emits alert.expire.
func (h *Hub) PublishAlertExpire(alert models.Alert) {
	h.publish(TopicAlertExpire, alert)
}

// PublishSourceNew emits source.new, called by internal/api after a
// successful Create.
func (h *Hub) PublishSourceNew(source models.Source) {
	h.publish(TopicSourceNew, source)
}

// PublishSourceUpdate emits source.update.
func (h *Hub) PublishSourceUpdate(source models.Source) {
	h.publish(TopicSourceUpdate, source)
}

// PublishSourceDelete emits source.delete. Only the deleted source's ID and
// name need survive the delete, so callers pass the record as read just
// before deletion.
func (h *Hub) PublishSourceDelete(source models.Source) {
	h.publish(TopicSourceDelete, source)
}
