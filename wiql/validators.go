package wiql

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical work item states across the common process templates.
var allowedStates = []string{
	"New",
	"Active",
	"Resolved",
	"Closed",
	"Done",
	"Removed",

	"In Progress",
	"Committed",
	"In Review",
	"Completed",

	"Proposed",
	"Approved",
	"Analysis",
	"Design",
	"Development",
	"Testing",
	"Verified",

	"Ready",
	"To Do",
	"In Planning",
	"Cut",
}

var allowedWorkItemTypes = []string{
	"User Story",
	"Task",
	"Bug",
	"Feature",
	"Epic",
	"Issue",

	"Product Backlog Item",
	"Impediment",

	"Requirement",
	"Change Request",
	"Review",
	"Risk",
	"Test Case",

	"Code Review Request",
	"Code Review Response",
	"Feedback Request",
	"Feedback Response",
	"Shared Steps",
	"Shared Parameter",
	"Test Plan",
	"Test Suite",
}

var allowedFieldNames = []string{
	"System.Id",
	"System.Rev",
	"System.AreaPath",
	"System.TeamProject",
	"System.IterationPath",
	"System.WorkItemType",
	"System.State",
	"System.Reason",
	"System.AssignedTo",
	"System.CreatedDate",
	"System.CreatedBy",
	"System.ChangedDate",
	"System.ChangedBy",
	"System.CommentCount",
	"System.Title",
	"System.BoardColumn",
	"System.BoardColumnDone",
	"System.Description",
	"System.Tags",
	"System.History",
	"System.RelatedLinkCount",
	"System.AttachedFileCount",
	"System.HyperLinkCount",
	"System.ExternalLinkCount",
	"System.RemoteLinkCount",
	"System.AuthorizedAs",
	"System.AuthorizedDate",
	"System.RevisedDate",
	"System.Watermark",
	"System.Parent",

	"Microsoft.VSTS.Common.StateChangeDate",
	"Microsoft.VSTS.Common.ActivatedDate",
	"Microsoft.VSTS.Common.ActivatedBy",
	"Microsoft.VSTS.Common.ResolvedDate",
	"Microsoft.VSTS.Common.ResolvedBy",
	"Microsoft.VSTS.Common.ResolvedReason",
	"Microsoft.VSTS.Common.ClosedDate",
	"Microsoft.VSTS.Common.ClosedBy",
	"Microsoft.VSTS.Common.Priority",
	"Microsoft.VSTS.Common.Severity",
	"Microsoft.VSTS.Common.ValueArea",
	"Microsoft.VSTS.Common.Risk",
	"Microsoft.VSTS.Common.StackRank",
	"Microsoft.VSTS.Common.Triage",
	"Microsoft.VSTS.Common.AcceptanceCriteria",
	"Microsoft.VSTS.Common.BacklogPriority",
	"Microsoft.VSTS.Common.BusinessValue",
	"Microsoft.VSTS.Common.TimeCriticality",

	"Microsoft.VSTS.Scheduling.RemainingWork",
	"Microsoft.VSTS.Scheduling.CompletedWork",
	"Microsoft.VSTS.Scheduling.OriginalEstimate",
	"Microsoft.VSTS.Scheduling.StoryPoints",
	"Microsoft.VSTS.Scheduling.Effort",
	"Microsoft.VSTS.Scheduling.Size",
	"Microsoft.VSTS.Scheduling.StartDate",
	"Microsoft.VSTS.Scheduling.FinishDate",
	"Microsoft.VSTS.Scheduling.TargetDate",
	"Microsoft.VSTS.Scheduling.DueDate",

	"Microsoft.VSTS.Build.IntegrationBuild",
	"Microsoft.VSTS.Build.FoundIn",

	"Microsoft.VSTS.CMMI.RequirementType",
	"Microsoft.VSTS.CMMI.Analysis",
	"Microsoft.VSTS.CMMI.TaskType",
	"Microsoft.VSTS.CMMI.Blocked",
	"Microsoft.VSTS.CMMI.Impact",
	"Microsoft.VSTS.CMMI.Probability",
	"Microsoft.VSTS.CMMI.Mitigation",
	"Microsoft.VSTS.CMMI.ContingencyPlan",

	"Microsoft.VSTS.TCM.ReproSteps",
	"Microsoft.VSTS.TCM.SystemInfo",
	"Microsoft.VSTS.TCM.Steps",
	"Microsoft.VSTS.TCM.LocalDataSource",
	"Microsoft.VSTS.TCM.Parameters",
	"Microsoft.VSTS.TCM.AutomatedTestName",
	"Microsoft.VSTS.TCM.AutomatedTestStorage",
	"Microsoft.VSTS.TCM.AutomatedTestId",
	"Microsoft.VSTS.TCM.AutomatedTestType",
}

var allowedLinkTypes = []string{
	"System.LinkTypes.Hierarchy-Forward",
	"System.LinkTypes.Hierarchy-Reverse",
	"System.LinkTypes.Related",
	"System.LinkTypes.Dependency-Forward",
	"System.LinkTypes.Dependency-Reverse",
	"System.LinkTypes.Duplicate-Forward",
	"System.LinkTypes.Duplicate-Reverse",
	"System.LinkTypes.Successor",
	"System.LinkTypes.Predecessor",
	"System.LinkTypes.Child",
	"System.LinkTypes.Parent",
	"System.LinkTypes.Affects",
	"System.LinkTypes.AffectedBy",
}

var (
	stateIndex    = buildIndex(allowedStates)
	typeIndex     = buildIndex(allowedWorkItemTypes)
	fieldIndex    = buildIndex(allowedFieldNames)
	linkTypeIndex = buildIndex(allowedLinkTypes)
)

// buildIndex maps the lowercased form of each canonical value to the
// canonical spelling, so lookups normalize case instead of failing on it.
func buildIndex(canonical []string) map[string]string {
	index := make(map[string]string, len(canonical))
	for _, v := range canonical {
		index[strings.ToLower(v)] = v
	}
	return index
}

func sortedCopy(vals []string) []string {
	out := make([]string, len(vals))
	copy(out, vals)
	sort.Strings(out)
	return out
}

// ValidateState checks state against the allowed set and returns the
// canonical spelling ("active" becomes "Active").
func ValidateState(state string) (string, error) {
	if state == "" {
		return "", &ValidationError{Field: "state", Message: "state cannot be empty"}
	}
	canonical, ok := stateIndex[strings.ToLower(state)]
	if !ok {
		return "", &ValidationError{
			Field: "state",
			Value: state,
			Message: fmt.Sprintf("%q is not an allowed state. Allowed states: %s",
				state, strings.Join(sortedCopy(allowedStates), ", ")),
		}
	}
	return canonical, nil
}

// ValidateWorkItemType checks a work item type against the allowed set and
// returns the canonical spelling.
func ValidateWorkItemType(workItemType string) (string, error) {
	if workItemType == "" {
		return "", &ValidationError{Field: "work item type", Message: "work item type cannot be empty"}
	}
	canonical, ok := typeIndex[strings.ToLower(workItemType)]
	if !ok {
		return "", &ValidationError{
			Field: "work item type",
			Value: workItemType,
			Message: fmt.Sprintf("%q is not an allowed work item type. Allowed types: %s",
				workItemType, strings.Join(sortedCopy(allowedWorkItemTypes), ", ")),
		}
	}
	return canonical, nil
}

// ValidateFieldName checks a field reference name against the allowed set.
// A "/fields/" prefix from a JSON patch path is stripped before lookup; the
// returned name is always the bare canonical reference name.
func ValidateFieldName(fieldName string) (string, error) {
	if fieldName == "" {
		return "", &ValidationError{Field: "field name", Message: "field name cannot be empty"}
	}
	clean := strings.TrimPrefix(fieldName, "/fields/")
	canonical, ok := fieldIndex[strings.ToLower(clean)]
	if !ok {
		return "", &ValidationError{
			Field: "field name",
			Value: fieldName,
			Message: fmt.Sprintf("%q is not an allowed field reference name. "+
				"Common fields: System.Id, System.Title, System.State, "+
				"Microsoft.VSTS.Common.Priority, Microsoft.VSTS.Scheduling.StoryPoints", fieldName),
		}
	}
	return canonical, nil
}

// ValidateFieldNames validates each field reference name in order, failing
// on the first miss.
func ValidateFieldNames(fieldNames []string) ([]string, error) {
	out := make([]string, 0, len(fieldNames))
	for _, name := range fieldNames {
		canonical, err := ValidateFieldName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, canonical)
	}
	return out, nil
}

// ValidateLinkType checks a link relationship type against the allowed set
// and returns the canonical spelling.
func ValidateLinkType(linkType string) (string, error) {
	if linkType == "" {
		return "", &ValidationError{Field: "link type", Message: "link type cannot be empty"}
	}
	canonical, ok := linkTypeIndex[strings.ToLower(linkType)]
	if !ok {
		return "", &ValidationError{
			Field: "link type",
			Value: linkType,
			Message: fmt.Sprintf("%q is not an allowed link type. Allowed link types: %s",
				linkType, strings.Join(sortedCopy(allowedLinkTypes), ", ")),
		}
	}
	return canonical, nil
}

// ValidatePriority enforces the 1..4 priority range, where 1 is highest.
func ValidatePriority(priority int) error {
	if priority < 1 || priority > 4 {
		return &ValidationError{
			Field:   "priority",
			Value:   fmt.Sprintf("%d", priority),
			Message: fmt.Sprintf("%d is out of range, priority must be 1-4 (1 is highest)", priority),
		}
	}
	return nil
}

// ValidateSeverity enforces the 1..4 severity range, where 1 is most severe.
func ValidateSeverity(severity int) error {
	if severity < 1 || severity > 4 {
		return &ValidationError{
			Field:   "severity",
			Value:   fmt.Sprintf("%d", severity),
			Message: fmt.Sprintf("%d is out of range, severity must be 1-4 (1 is most severe)", severity),
		}
	}
	return nil
}

// ValidateWorkItemID rejects non-positive work item IDs.
func ValidateWorkItemID(id int) error {
	if id <= 0 {
		return &ValidationError{
			Field:   "work item id",
			Value:   fmt.Sprintf("%d", id),
			Message: fmt.Sprintf("%d is not a valid work item ID, IDs are positive integers", id),
		}
	}
	return nil
}
