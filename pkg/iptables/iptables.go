// Package iptables builds the iptables invocations used to install and remove filtering rules.
package iptables

import (
	"context"
)

const (
	// ChainInput is the netfilter chain for packets addressed to the host
	ChainInput = "INPUT"
	// TargetDrop silently discards the matched packets
	TargetDrop = "DROP"
	// ProtocolTCP matches TCP packets
	ProtocolTCP = "tcp"
)

// Commander runs a command given as argv and returns its combined output
type Commander interface {
	RunCommand(ctx context.Context, argv []string) (string, error)
}

// Rule is a netfilter/iptables rule.
type Rule struct {
	// Table is the netfilter table to which this rule belongs. When empty, the
	// iptables default ("filter") is used and no -t flag is emitted.
	Table string
	// Chain is the netfilter chain to which this rule belongs. Usual values are "INPUT", "OUTPUT".
	Chain string
	// Args is the rest of the netfilter rule, one element per argument.
	Args []string
	// Comment is attached with the comment match so the rule can be located later.
	Comment string
}

// DropFrom returns a rule that drops inbound tcp traffic from the given source address.
// The comment is usually the identifier of the node the address belongs to.
func DropFrom(source string, comment string) Rule {
	return Rule{
		Chain:   ChainInput,
		Args:    []string{"-p", ProtocolTCP, "-s", source, "-j", TargetDrop},
		Comment: comment,
	}
}

// Iptables builds and runs iptables commands
type Iptables struct {
	commander Commander
	sudo      bool
}

// New returns an Iptables that runs commands with the given Commander.
// If sudo is true, commands are prefixed with sudo.
func New(commander Commander, sudo bool) *Iptables {
	return &Iptables{
		commander: commander,
		sudo:      sudo,
	}
}

// Append appends the rule at the end of its chain
func (i *Iptables) Append(ctx context.Context, r Rule) error {
	_, err := i.commander.RunCommand(ctx, i.AppendCmd(r))
	return err
}

// Delete deletes the first rule in the chain that matches r
func (i *Iptables) Delete(ctx context.Context, r Rule) error {
	_, err := i.commander.RunCommand(ctx, i.DeleteCmd(r))
	return err
}

// AppendCmd returns the argv that appends r
func (i *Iptables) AppendCmd(r Rule) []string {
	return i.argv("-A", r)
}

// DeleteCmd returns the argv that deletes r
func (i *Iptables) DeleteCmd(r Rule) []string {
	return i.argv("-D", r)
}

func (i *Iptables) argv(action string, r Rule) []string {
	argv := make([]string, 0, len(r.Args)+10)
	if i.sudo {
		argv = append(argv, "sudo")
	}

	argv = append(argv, "iptables")
	if r.Table != "" {
		argv = append(argv, "-t", r.Table)
	}

	argv = append(argv, action, r.Chain)
	argv = append(argv, r.Args...)

	if r.Comment != "" {
		argv = append(argv, "-m", "comment", "--comment", r.Comment)
	}

	return argv
}
