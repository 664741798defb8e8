package notifications

import "context"

// Template identifiers from the legacy catalog. The numeric values are
// stable across deployments and shared by every service that triggers
// notifications, so they must never be renumbered.
const (
	TemplateWorkOrderInProgress   = 2
	TemplateWorkOrderJeopardy     = 3
	TemplateWorkOrderCompleted    = 4
	TemplateWorkOrderAssigned     = 5
	TemplateChildWorkOrder        = 6
	TemplateScheduleCreated       = 7
	TemplateScheduleUpdated       = 8
	TemplateScheduleAssigned      = 9
	TemplateBookingCreated        = 10
	TemplateBookingUpdated        = 11
	TemplateBookingRescheduled    = 12
	TemplateBookingCancelled      = 13
	TemplateWorkOrderDueReminder  = 14
	TemplateScheduleStartReminder = 15
	TemplateBookingReminder       = 16
	TemplateWorkOrderQaInReview   = 17
	TemplateWorkOrderQaAccepted   = 18
	TemplateWorkOrderQaRejected   = 19
)

// Catalog returns the built-in template definitions used for administrative
// seeding of a fresh deployment.
func Catalog() []Template {
	return []Template{
		{
			ID:      TemplateWorkOrderInProgress,
			Name:    "WorkOrderInProgress",
			Title:   "Work order {{woCode}} in progress",
			Body:    "Work order {{woCode}} ({{woType}}) is now in progress. Technician: {{technician}}.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateWorkOrderJeopardy,
			Name:    "WorkOrderJeopardy",
			Title:   "Work order {{woCode}} in jeopardy",
			Body:    "Work order {{woCode}} is at risk of missing {{preferredEndTime}}. Supervisor: {{supervisor}}.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateWorkOrderCompleted,
			Name:    "WorkOrderCompleted",
			Title:   "Work order {{woCode}} completed",
			Body:    "Work order {{woCode}} has been completed by {{technician}}.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateWorkOrderAssigned,
			Name:    "WorkOrderAssigned",
			Title:   "Work order {{woCode}} assigned to you",
			Body:    "Work order {{woCode}} ({{woType}}, priority {{priority}}) at {{address}} has been assigned to you.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateChildWorkOrder,
			Name:    "ChildWorkOrder",
			Title:   "Follow-up created for {{woCode}}",
			Body:    "A follow-up work order was created under {{woCode}}. Notes: {{notes}}",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateScheduleCreated,
			Name:    "ScheduleCreated",
			Title:   "Schedule created: {{eventName}}",
			Body:    "{{eventName}} at {{eventLocation}} from {{scheduleStartDate}} to {{scheduleEndDate}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateScheduleUpdated,
			Name:    "ScheduleUpdated",
			Title:   "Schedule updated: {{eventName}}",
			Body:    "{{eventName}} was updated. New time: {{scheduleStartDate}} to {{scheduleEndDate}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateScheduleAssigned,
			Name:    "ScheduleAssigned",
			Title:   "You were added to {{eventName}}",
			Body:    "You are scheduled for {{eventName}} at {{eventLocation}} ({{eventDuration}}).",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateBookingCreated,
			Name:    "BookingCreated",
			Title:   "Booking confirmed: {{eventName}}",
			Body:    "{{personName}}, your booking for {{eventName}} on {{bookingDateTime}} is confirmed.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateBookingUpdated,
			Name:    "BookingUpdated",
			Title:   "Booking updated: {{eventName}}",
			Body:    "Your booking for {{eventName}} was updated. {{additionalInfo}}",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateBookingRescheduled,
			Name:    "BookingRescheduled",
			Title:   "Booking rescheduled: {{eventName}}",
			Body:    "Your booking for {{eventName}} was moved to {{bookingDateTime}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateBookingCancelled,
			Name:    "BookingCancelled",
			Title:   "Booking cancelled: {{eventName}}",
			Body:    "Your booking for {{eventName}} on {{bookingDateTime}} was cancelled.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateWorkOrderDueReminder,
			Name:    "WorkOrderDueReminder",
			Title:   "Reminder: work order {{woCode}} due soon",
			Body:    "Work order {{woCode}} ({{woStatus}}) is due by {{preferredEndTime}}.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateScheduleStartReminder,
			Name:    "ScheduleStartReminder",
			Title:   "Reminder: {{eventName}} starts soon",
			Body:    "{{eventName}} at {{eventLocation}} starts at {{scheduleStartDate}}.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateBookingReminder,
			Name:    "BookingReminder",
			Title:   "Reminder: {{eventName}} on {{bookingDateTime}}",
			Body:    "{{personName}}, this is a reminder of your booking for {{eventName}} at {{eventLocation}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateWorkOrderQaInReview,
			Name:    "WorkOrderQaInReview",
			Title:   "Work order {{woCode}} in QA review",
			Body:    "Work order {{woCode}} has entered QA review ({{qaStatus}}).",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateWorkOrderQaAccepted,
			Name:    "WorkOrderQaAccepted",
			Title:   "Work order {{woCode}} passed QA",
			Body:    "Work order {{woCode}} was accepted by QA.",
			Channel: ChannelPush,
		},
		{
			ID:      TemplateWorkOrderQaRejected,
			Name:    "WorkOrderQaRejected",
			Title:   "Work order {{woCode}} rejected by QA",
			Body:    "Work order {{woCode}} was rejected by QA ({{qaStatus}}). Notes: {{notes}}",
			Channel: ChannelPush,
		},
	}
}

// SeedTemplates inserts the built-in catalog into storage, skipping
// templates that already exist. Intended for administrative setup of fresh
// deployments.
func SeedTemplates(ctx context.Context, storage Storage) error {
	for _, tpl := range Catalog() {
		if _, err := storage.FindTemplateByID(ctx, tpl.ID); err == nil {
			continue
		}
		if err := storage.CreateTemplate(ctx, tpl); err != nil {
			return err
		}
	}
	return nil
}
