package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionHappyPath(t *testing.T) {
	path := []RequestStatus{
		StatusDraft,
		StatusForRecApproval,
		StatusRecApproved,
		StatusForFinalApproval,
		StatusFinalApproved,
		StatusForPosting,
		StatusPosted,
		StatusReceived,
	}
	for i := 0; i < len(path)-1; i++ {
		require.True(t, CanTransition(path[i], path[i+1]), "expected %s -> %s", path[i], path[i+1])
	}
}

func TestCanTransitionSidePaths(t *testing.T) {
	require.True(t, CanTransition(StatusForRecApproval, StatusDisapproved))
	require.True(t, CanTransition(StatusForFinalApproval, StatusDisapproved))
	require.True(t, CanTransition(StatusForRecApproval, StatusForEdit))
	require.True(t, CanTransition(StatusDisapproved, StatusForEdit))
	require.True(t, CanTransition(StatusForEdit, StatusForRecApproval))
	require.True(t, CanTransition(StatusDraft, StatusCancelled))
	require.True(t, CanTransition(StatusDisapproved, StatusCancelled))
	require.True(t, CanTransition(StatusPosted, StatusTransmitted))
}

func TestCanTransitionRejectsIllegalMoves(t *testing.T) {
	require.False(t, CanTransition(StatusDraft, StatusPosted))
	require.False(t, CanTransition(StatusPosted, StatusDraft))
	require.False(t, CanTransition(StatusRecApproved, StatusDisapproved))
	require.False(t, CanTransition(StatusCancelled, StatusForRecApproval))
	require.False(t, CanTransition(StatusReceived, StatusPosted))
	require.False(t, CanTransition(StatusForPosting, StatusForEdit))
}

func TestStatusTerminalAndEditable(t *testing.T) {
	for _, s := range []RequestStatus{StatusReceived, StatusTransmitted, StatusCancelled} {
		require.True(t, s.IsTerminal(), "%s should be terminal", s)
	}
	require.False(t, StatusPosted.IsTerminal())

	require.True(t, StatusDraft.IsEditable())
	require.True(t, StatusForEdit.IsEditable())
	require.False(t, StatusForRecApproval.IsEditable())
	require.False(t, StatusPosted.IsEditable())
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusForPosting.Valid())
	require.False(t, RequestStatus("PENDING").Valid())
	require.False(t, RequestStatus("").Valid())
}

func TestCompletionStatus(t *testing.T) {
	require.Equal(t, StatusReceived, RequestTypeItem.CompletionStatus())
	require.Equal(t, StatusTransmitted, RequestTypeService.CompletionStatus())
}

func TestComputeTotal(t *testing.T) {
	request := &MaterialRequest{
		Freight:  decimal.RequireFromString("25.50"),
		Discount: decimal.RequireFromString("10.00"),
		Items: []MaterialRequestItem{
			{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("100.00")},
			{Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("40.00")},
		},
	}
	// 300 + 60 + 25.50 - 10.00
	require.True(t, request.ComputeTotal().Equal(decimal.RequireFromString("375.50")))
}

func TestComputeTotalNoLines(t *testing.T) {
	request := &MaterialRequest{
		Freight:  decimal.NewFromInt(5),
		Discount: decimal.NewFromInt(8),
	}
	require.True(t, request.ComputeTotal().Equal(decimal.NewFromInt(-3)))
}
