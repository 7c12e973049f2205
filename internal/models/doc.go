// Package models defines the core domain models for BillBuddy.
//
// # Models
//
//   - Account: Registered user identity (login via email + password)
//   - Group: A circle of people sharing expenses, owned by an account
//   - Member: A group-scoped participant, optionally linked to an Account
//   - Expense: Money one member paid on behalf of the group
//   - ExpenseShare: One member's portion of one expense (owed vs. paid)
//   - Payment: Append-only record of a settlement payment between members
//
// # Design Principles
//
// 1. **One-directional references**: Members point at Accounts by ID; nothing
// points back. Lookups in the other direction go through an index, never a
// cyclic object graph.
//
// 2. **Integer money**: All amounts are money.Cents (int64 minor units), so
// the per-expense conservation invariant (share amounts sum to the expense
// amount) holds exactly.
//
// 3. **Derived fields are derived**: ExpenseShare.Status, Expense.Settled and
// Group.Active are never set by callers. The engine recomputes them after
// every mutation, inside the same transaction as the mutation itself.
package models
