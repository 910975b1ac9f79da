package workflow_test

import (
	"testing"

	"autopen-api/internal/application/workflow"
)

func TestParseStepAcceptsKnownSteps(t *testing.T) {
	for _, name := range []string{
		"creator", "brain-dump", "idea-selection", "ebook-structure",
		"ebook-writing", "ebook-preview", "completed",
	} {
		step, err := workflow.ParseStep(name)
		if err != nil {
			t.Fatalf("ParseStep(%q) returned error: %v", name, err)
		}
		if step.String() != name {
			t.Fatalf("ParseStep(%q) = %q", name, step)
		}
	}
}

func TestParseStepRejectsUnknownNames(t *testing.T) {
	for _, name := range []string{"", "drafting", "brain dump", "Creator"} {
		if _, err := workflow.ParseStep(name); err == nil {
			t.Fatalf("ParseStep(%q) accepted an unknown step", name)
		}
	}
}

func TestNormalizeCollapsesTransientStep(t *testing.T) {
	if got := workflow.StepEbookStructure.Normalize(); got != workflow.StepEbookWriting {
		t.Fatalf("ebook-structure normalized to %q, want ebook-writing", got)
	}
	if got := workflow.StepBrainDump.Normalize(); got != workflow.StepBrainDump {
		t.Fatalf("brain-dump normalized to %q", got)
	}
}

func TestIsBackward(t *testing.T) {
	if !workflow.StepEbookWriting.IsBackward(workflow.StepBrainDump) {
		t.Fatal("ebook-writing -> brain-dump should be backward")
	}
	if workflow.StepBrainDump.IsBackward(workflow.StepEbookWriting) {
		t.Fatal("brain-dump -> ebook-writing should not be backward")
	}
}

func TestNextOfSkipsTransientStep(t *testing.T) {
	if got := workflow.StepIdeaSelection.NextOf(); got != workflow.StepEbookWriting {
		t.Fatalf("next of idea-selection = %q, want ebook-writing", got)
	}
	if got := workflow.StepCompleted.NextOf(); got != workflow.StepCompleted {
		t.Fatalf("next of completed = %q, want completed", got)
	}
}
