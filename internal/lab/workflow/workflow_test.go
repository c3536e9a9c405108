package workflow

import (
	"errors"
	"testing"
)

// fullEvidence satisfies every evidence gate
func fullEvidence() EvidenceSet {
	return EvidenceSet{
		EvidenceTestRecord:   true,
		EvidenceQCInspection: true,
		EvidencePayment:      true,
		EvidenceApproval:     true,
	}
}

// TestUnauthorizedRoles verifies that for every non-terminal stage, every
// role outside its authorized set is refused.
func TestUnauthorizedRoles(t *testing.T) {
	for _, stage := range Stages() {
		if stage == StageCompleted {
			continue
		}
		owner, _ := ActorFor(stage)
		for _, role := range ValidRoles() {
			if role == owner || role == RoleUncle {
				continue
			}
			_, err := AttemptTransition(stage, StatusInProgress, role, DecisionAccept, fullEvidence())
			if !errors.Is(err, ErrUnauthorized) {
				t.Errorf("stage %s role %s: expected ErrUnauthorized, got %v", stage, role, err)
			}
		}
	}
}

// TestTerminalStage verifies that a completed material accepts no further
// transition, for any role and either decision.
func TestTerminalStage(t *testing.T) {
	for _, role := range ValidRoles() {
		for _, decision := range []Decision{DecisionAccept, DecisionReject} {
			_, err := AttemptTransition(StageCompleted, StatusCompleted, role, decision, fullEvidence())
			if !errors.Is(err, ErrTerminal) {
				t.Errorf("role %s decision %s: expected ErrTerminal, got %v", role, decision, err)
			}
		}
	}
}

// TestForwardSingleStep verifies every accepted forward transition advances
// exactly one stage, never more.
func TestForwardSingleStep(t *testing.T) {
	for _, stage := range Stages() {
		if stage == StageCompleted {
			continue
		}
		owner, _ := ActorFor(stage)
		res, err := AttemptTransition(stage, StatusInProgress, owner, DecisionAccept, fullEvidence())
		if err != nil {
			t.Fatalf("stage %s: unexpected error %v", stage, err)
		}
		if res.Stage.Index() != stage.Index()+1 {
			t.Errorf("stage %s: advanced to %s (index %d), want index %d",
				stage, res.Stage, res.Stage.Index(), stage.Index()+1)
		}
	}
}

// TestRejectionStepsBackOneStage verifies the one-step-back rejection policy:
// status becomes rejected and stage moves backward by exactly one, never forward.
func TestRejectionStepsBackOneStage(t *testing.T) {
	for _, stage := range []Stage{StageTesting, StageReview, StageQC, StageAccounting, StageFinalApproval} {
		owner, _ := ActorFor(stage)
		res, err := AttemptTransition(stage, StatusInProgress, owner, DecisionReject, nil)
		if err != nil {
			t.Fatalf("stage %s: unexpected error %v", stage, err)
		}
		if res.Status != StatusRejected {
			t.Errorf("stage %s: expected status rejected, got %s", stage, res.Status)
		}
		if res.Stage.Index() != stage.Index()-1 {
			t.Errorf("stage %s: rejected to %s, want exactly one stage back", stage, res.Stage)
		}
	}
}

// TestRejectAtReceived verifies rejection is not available at the first stage.
func TestRejectAtReceived(t *testing.T) {
	_, err := AttemptTransition(StageReceived, StatusPending, RoleTester, DecisionReject, nil)
	if !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}
}

// TestIdempotence verifies the controller is a pure function: same inputs,
// same result, both calls.
func TestIdempotence(t *testing.T) {
	ev := EvidenceSet{EvidenceTestRecord: true}
	r1, err1 := AttemptTransition(StageTesting, StatusInProgress, RoleManager, DecisionAccept, ev)
	r2, err2 := AttemptTransition(StageTesting, StatusInProgress, RoleManager, DecisionAccept, ev)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v / %v", err1, err2)
	}
	if r1 != r2 {
		t.Fatalf("results differ: %+v vs %+v", r1, r2)
	}
}

// TestFullChainRoundTrip walks a material through the complete forward chain
// with each stage's authorized role and verifies it terminates at
// (completed, completed) with no further transition accepted.
func TestFullChainRoundTrip(t *testing.T) {
	stage, status := StageReceived, StatusPending
	for stage != StageCompleted {
		owner, ok := ActorFor(stage)
		if !ok {
			t.Fatalf("no actor for stage %s", stage)
		}
		res, err := AttemptTransition(stage, status, owner, DecisionAccept, fullEvidence())
		if err != nil {
			t.Fatalf("stage %s: %v", stage, err)
		}
		stage, status = res.Stage, res.Status
	}
	if status != StatusCompleted {
		t.Fatalf("expected (completed, completed), got (%s, %s)", stage, status)
	}
	if _, err := AttemptTransition(stage, status, RoleUncle, DecisionAccept, fullEvidence()); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal after completion, got %v", err)
	}
}

// TestRejectThenRecover: tester accepts received → (testing, in_progress);
// manager rejects → (received, rejected); tester resubmits → material
// re-enters the forward chain at (testing, in_progress).
func TestRejectThenRecover(t *testing.T) {
	res, err := AttemptTransition(StageReceived, StatusPending, RoleTester, DecisionAccept, nil)
	if err != nil {
		t.Fatalf("tester accept: %v", err)
	}
	if res.Stage != StageTesting || res.Status != StatusInProgress {
		t.Fatalf("expected (testing, in_progress), got (%s, %s)", res.Stage, res.Status)
	}

	res, err = AttemptTransition(res.Stage, res.Status, RoleManager, DecisionReject, nil)
	if err != nil {
		t.Fatalf("manager reject: %v", err)
	}
	if res.Stage != StageReceived || res.Status != StatusRejected {
		t.Fatalf("expected (received, rejected), got (%s, %s)", res.Stage, res.Status)
	}

	// owning actor of the stage it now sits at resubmits
	res, err = AttemptTransition(res.Stage, res.Status, RoleTester, DecisionAccept, nil)
	if err != nil {
		t.Fatalf("tester resubmit: %v", err)
	}
	if res.Stage != StageTesting || res.Status != StatusInProgress {
		t.Fatalf("expected (testing, in_progress) after recovery, got (%s, %s)", res.Stage, res.Status)
	}
}

// TestSecretaryAtTesting: secretary is not the testing-stage actor.
func TestSecretaryAtTesting(t *testing.T) {
	_, err := AttemptTransition(StageTesting, StatusInProgress, RoleSecretary, DecisionAccept, fullEvidence())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

// TestUncleEverywhere: uncle succeeds at every non-terminal stage, with the
// same forward/reject effects as the owning role.
func TestUncleEverywhere(t *testing.T) {
	for _, stage := range Stages() {
		if stage == StageCompleted {
			continue
		}
		res, err := AttemptTransition(stage, StatusInProgress, RoleUncle, DecisionAccept, fullEvidence())
		if err != nil {
			t.Errorf("uncle accept at %s: %v", stage, err)
			continue
		}
		next, _ := stage.Next()
		if res.Stage != next {
			t.Errorf("uncle accept at %s: got %s, want %s", stage, res.Stage, next)
		}
		if stage != StageReceived {
			rres, err := AttemptTransition(stage, StatusInProgress, RoleUncle, DecisionReject, nil)
			if err != nil {
				t.Errorf("uncle reject at %s: %v", stage, err)
				continue
			}
			prev, _ := stage.Prev()
			if rres.Stage != prev || rres.Status != StatusRejected {
				t.Errorf("uncle reject at %s: got (%s, %s)", stage, rres.Stage, rres.Status)
			}
		}
	}
}

// TestEvidenceGate: accepting out of a gated stage without its evidence record fails.
func TestEvidenceGate(t *testing.T) {
	cases := []struct {
		stage Stage
		kind  EvidenceKind
	}{
		{StageTesting, EvidenceTestRecord},
		{StageQC, EvidenceQCInspection},
		{StageAccounting, EvidencePayment},
		{StageFinalApproval, EvidenceApproval},
	}
	for _, tc := range cases {
		owner, _ := ActorFor(tc.stage)
		_, err := AttemptTransition(tc.stage, StatusInProgress, owner, DecisionAccept, nil)
		if !errors.Is(err, ErrMissingEvidence) {
			t.Errorf("stage %s: expected ErrMissingEvidence, got %v", tc.stage, err)
		}
		// with the evidence present the same call succeeds
		if _, err := AttemptTransition(tc.stage, StatusInProgress, owner, DecisionAccept, EvidenceSet{tc.kind: true}); err != nil {
			t.Errorf("stage %s with %s: unexpected error %v", tc.stage, tc.kind, err)
		}
		// rejection needs no evidence
		if _, err := AttemptTransition(tc.stage, StatusInProgress, owner, DecisionReject, nil); err != nil {
			t.Errorf("stage %s reject: unexpected error %v", tc.stage, err)
		}
	}
}

// TestInvariantsOnResults: stage=completed iff status=completed, and exactly
// one status value at a time (the controller only ever returns one).
func TestInvariantsOnResults(t *testing.T) {
	for _, stage := range Stages() {
		if stage == StageCompleted {
			continue
		}
		owner, _ := ActorFor(stage)
		res, err := AttemptTransition(stage, StatusInProgress, owner, DecisionAccept, fullEvidence())
		if err != nil {
			t.Fatalf("stage %s: %v", stage, err)
		}
		if (res.Stage == StageCompleted) != (res.Status == StatusCompleted) {
			t.Errorf("completed stage without completed status: (%s, %s)", res.Stage, res.Status)
		}
		if !res.Status.Valid() {
			t.Errorf("unknown status on result: status %s", res.Status)
		}
	}
}

func TestForceSetState(t *testing.T) {
	// non-uncle refused
	for _, role := range ValidRoles() {
		if role == RoleUncle {
			continue
		}
		if _, err := ForceSetState(role, StageTesting, StatusInProgress); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("role %s: expected ErrUnauthorized, got %v", role, err)
		}
	}

	// uncle may force any invariant-respecting pair
	res, err := ForceSetState(RoleUncle, StageQC, StatusRejected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stage != StageQC || res.Status != StatusRejected {
		t.Fatalf("got (%s, %s)", res.Stage, res.Status)
	}

	// the completed pairing rule holds for forced pairs too
	if _, err := ForceSetState(RoleUncle, StageCompleted, StatusInProgress); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for (completed, in_progress), got %v", err)
	}
	if _, err := ForceSetState(RoleUncle, StageTesting, StatusCompleted); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for (testing, completed), got %v", err)
	}
	if _, err := ForceSetState(RoleUncle, StageCompleted, StatusCompleted); err != nil {
		t.Errorf("unexpected error for (completed, completed): %v", err)
	}
}

func TestReadVisibility(t *testing.T) {
	// uncle sees all stages
	if got := len(VisibleStages(RoleUncle)); got != len(Stages()) {
		t.Fatalf("uncle sees %d stages, want %d", got, len(Stages()))
	}

	// secretary sees intake and pickup but not testing
	if !CanView(RoleSecretary, StageReceived) || !CanView(RoleSecretary, StageCompleted) {
		t.Error("secretary should see received and completed")
	}
	if CanView(RoleSecretary, StageTesting) {
		t.Error("secretary should not see testing")
	}

	// manager sees testing and review only
	want := map[Stage]bool{StageTesting: true, StageReview: true}
	for _, stage := range Stages() {
		if CanView(RoleManager, stage) != want[stage] {
			t.Errorf("manager visibility of %s: got %v", stage, CanView(RoleManager, stage))
		}
	}
}

func TestStageOrderHelpers(t *testing.T) {
	if i := StageReceived.Index(); i != 0 {
		t.Errorf("received index %d", i)
	}
	if i := StageCompleted.Index(); i != 6 {
		t.Errorf("completed index %d", i)
	}
	if _, ok := StageCompleted.Next(); ok {
		t.Error("completed should have no next stage")
	}
	if _, ok := StageReceived.Prev(); ok {
		t.Error("received should have no previous stage")
	}
	if Stage("shipped").Valid() {
		t.Error("unknown stage should be invalid")
	}
	if _, err := AttemptTransition(Stage("shipped"), StatusPending, RoleUncle, DecisionAccept, nil); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("expected ErrInvalidStage, got %v", err)
	}
}
