package ado

import "strings"

// Field reference names used across work item operations.
const (
	FieldID            = "System.Id"
	FieldRev           = "System.Rev"
	FieldAreaPath      = "System.AreaPath"
	FieldTeamProject   = "System.TeamProject"
	FieldIterationPath = "System.IterationPath"
	FieldWorkItemType  = "System.WorkItemType"
	FieldState         = "System.State"
	FieldReason        = "System.Reason"
	FieldAssignedTo    = "System.AssignedTo"
	FieldCreatedDate   = "System.CreatedDate"
	FieldCreatedBy     = "System.CreatedBy"
	FieldChangedDate   = "System.ChangedDate"
	FieldChangedBy     = "System.ChangedBy"
	FieldCommentCount  = "System.CommentCount"
	FieldTitle         = "System.Title"
	FieldDescription   = "System.Description"
	FieldTags          = "System.Tags"
	FieldHistory       = "System.History"
	FieldParent        = "System.Parent"

	FieldStateChangeDate    = "Microsoft.VSTS.Common.StateChangeDate"
	FieldActivatedDate      = "Microsoft.VSTS.Common.ActivatedDate"
	FieldResolvedDate       = "Microsoft.VSTS.Common.ResolvedDate"
	FieldResolvedBy         = "Microsoft.VSTS.Common.ResolvedBy"
	FieldResolvedReason     = "Microsoft.VSTS.Common.ResolvedReason"
	FieldClosedDate         = "Microsoft.VSTS.Common.ClosedDate"
	FieldClosedBy           = "Microsoft.VSTS.Common.ClosedBy"
	FieldPriority           = "Microsoft.VSTS.Common.Priority"
	FieldSeverity           = "Microsoft.VSTS.Common.Severity"
	FieldValueArea          = "Microsoft.VSTS.Common.ValueArea"
	FieldRisk               = "Microsoft.VSTS.Common.Risk"
	FieldStackRank          = "Microsoft.VSTS.Common.StackRank"
	FieldAcceptanceCriteria = "Microsoft.VSTS.Common.AcceptanceCriteria"
	FieldBusinessValue      = "Microsoft.VSTS.Common.BusinessValue"
	FieldTimeCriticality    = "Microsoft.VSTS.Common.TimeCriticality"
	FieldActivity           = "Microsoft.VSTS.Common.Activity"

	FieldRemainingWork    = "Microsoft.VSTS.Scheduling.RemainingWork"
	FieldCompletedWork    = "Microsoft.VSTS.Scheduling.CompletedWork"
	FieldOriginalEstimate = "Microsoft.VSTS.Scheduling.OriginalEstimate"
	FieldStoryPoints      = "Microsoft.VSTS.Scheduling.StoryPoints"
	FieldEffort           = "Microsoft.VSTS.Scheduling.Effort"

	FieldIntegrationBuild = "Microsoft.VSTS.Build.IntegrationBuild"
	FieldFoundIn          = "Microsoft.VSTS.Build.FoundIn"

	FieldReproSteps = "Microsoft.VSTS.TCM.ReproSteps"
	FieldSystemInfo = "Microsoft.VSTS.TCM.SystemInfo"
)

// BasicFields is the lightweight set for list queries.
var BasicFields = []string{
	FieldID, FieldTitle, FieldState, FieldWorkItemType, FieldAssignedTo,
}

// DetailedFields is the set for individual work item views.
var DetailedFields = append(append([]string{}, BasicFields...),
	FieldRev, FieldCreatedDate, FieldCreatedBy, FieldChangedDate, FieldChangedBy,
	FieldReason, FieldAreaPath, FieldIterationPath, FieldTags, FieldDescription,
	FieldPriority, FieldRemainingWork, FieldStoryPoints, FieldCommentCount,
)

// SprintFields is the set for iteration-scoped queries.
var SprintFields = []string{
	FieldID, FieldTitle, FieldState, FieldWorkItemType, FieldAssignedTo,
	FieldIterationPath, FieldPriority, FieldStackRank,
	FieldRemainingWork, FieldCompletedWork, FieldOriginalEstimate, FieldStoryPoints,
	FieldStateChangeDate, FieldActivatedDate, FieldClosedDate,
}

// BugFields is the set for bug-typed work items.
var BugFields = append(append([]string{}, BasicFields...),
	FieldSeverity, FieldPriority, FieldFoundIn, FieldIntegrationBuild,
	FieldReproSteps, FieldSystemInfo, FieldIterationPath, FieldAreaPath,
	FieldResolvedDate, FieldResolvedBy, FieldResolvedReason, FieldClosedDate, FieldClosedBy,
)

// StoryFields is the set for user stories and backlog items.
var StoryFields = append(append([]string{}, BasicFields...),
	FieldStoryPoints, FieldPriority, FieldValueArea, FieldRisk,
	FieldBusinessValue, FieldTimeCriticality, FieldAcceptanceCriteria,
	FieldIterationPath, FieldAreaPath, FieldStackRank,
)

// TaskFields is the set for tasks.
var TaskFields = append(append([]string{}, BasicFields...),
	FieldRemainingWork, FieldCompletedWork, FieldOriginalEstimate, FieldPriority,
	FieldIterationPath, FieldAreaPath, FieldActivity,
)

// MyWorkFields is the set for "assigned to me" queries.
var MyWorkFields = []string{
	FieldID, FieldTitle, FieldState, FieldWorkItemType, FieldAssignedTo,
	FieldIterationPath, FieldPriority, FieldChangedDate, FieldRemainingWork,
}

// Query limits.
const (
	DefaultQueryLimit = 100
	SprintQueryLimit  = 500
	BatchSize         = 200
)

// Work item states used by sprint roll-ups.
var (
	CompletedStates  = map[string]bool{"Done": true, "Closed": true, "Resolved": true, "Completed": true}
	InProgressStates = map[string]bool{"Active": true, "In Progress": true, "Committed": true, "In Review": true}
)

// FieldsForType returns the optimal field set for a work item type.
func FieldsForType(workItemType string) []string {
	upper := strings.ToUpper(workItemType)
	switch {
	case strings.Contains(upper, "BUG"):
		return BugFields
	case strings.Contains(upper, "USER STORY"), strings.Contains(upper, "PRODUCT BACKLOG ITEM"):
		return StoryFields
	case strings.Contains(upper, "TASK"):
		return TaskFields
	default:
		return DetailedFields
	}
}
