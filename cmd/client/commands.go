package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
	"gitlab.com/dirk.krummacker/contact-manager/internal/presenter"
	"gitlab.com/dirk.krummacker/contact-manager/internal/tui"
)

// viewOptions are the flags that shape the list view.
type viewOptions struct {
	sort     string
	desc     bool
	page     int
	pageSize int
	filter   string
}

func (o *viewOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.sort, "sort", presenter.DefaultSortField, "field to sort by: "+strings.Join(model.Fields, ", "))
	flags.BoolVar(&o.desc, "desc", false, "sort in descending order")
	flags.IntVar(&o.page, "page", 1, "page to show, starting at 1")
	flags.IntVar(&o.pageSize, "page-size", presenter.DefaultPageSize, fmt.Sprintf("rows per page, one of %v", presenter.PageSizes))
	flags.StringVar(&o.filter, "filter", "", "show only contacts with an exact field value, e.g. company=ACME")
}

// apply turns the options into list state.
func (o viewOptions) apply(l presenter.List) (presenter.List, error) {
	if !model.IsField(o.sort) {
		return l, fmt.Errorf("unknown sort field %q", o.sort)
	}
	l = l.ToggleSort(o.sort)
	if l.SortDirection() == presenter.Descending {
		l = l.ToggleSort(o.sort)
	}
	if o.desc {
		l = l.ToggleSort(o.sort)
	}
	if o.filter != "" {
		field, value, ok := strings.Cut(o.filter, "=")
		if !ok || !model.IsField(field) {
			return l, fmt.Errorf("filter must look like field=value, got %q", o.filter)
		}
		l = l.WithFilter(field, value)
	}
	l, err := l.WithPageSize(o.pageSize)
	if err != nil {
		return l, err
	}
	if o.page < 1 {
		return l, fmt.Errorf("page must be 1 or greater, got %d", o.page)
	}
	return l.WithPage(o.page - 1), nil
}

func newListCmd(a *app) *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of contacts as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			list, err := opts.apply(s.List())
			if err != nil {
				return err
			}
			return tui.Render(cmd.OutOrStdout(), list)
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print a single contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contact, err := a.api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printContact(cmd.OutOrStdout(), contact)
		},
	}
}

// draftFlags binds one flag per contact attribute.
type draftFlags struct {
	draft model.Draft
}

func (d *draftFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&d.draft.FirstName, "first-name", "", "first name")
	flags.StringVar(&d.draft.LastName, "last-name", "", "last name")
	flags.StringVar(&d.draft.Email, "email", "", "email address")
	flags.StringVar(&d.draft.PhoneNo, "phone", "", "phone number, exactly 10 digits")
	flags.StringVar(&d.draft.Company, "company", "", "company")
	flags.StringVar(&d.draft.JobTitle, "job-title", "", "job title")
}

// overlay returns base with every attribute replaced whose flag was given.
func (d *draftFlags) overlay(flags *pflag.FlagSet, base model.Draft) model.Draft {
	if flags.Changed("first-name") {
		base.FirstName = d.draft.FirstName
	}
	if flags.Changed("last-name") {
		base.LastName = d.draft.LastName
	}
	if flags.Changed("email") {
		base.Email = d.draft.Email
	}
	if flags.Changed("phone") {
		base.PhoneNo = d.draft.PhoneNo
	}
	if flags.Changed("company") {
		base.Company = d.draft.Company
	}
	if flags.Changed("job-title") {
		base.JobTitle = d.draft.JobTitle
	}
	return base
}

func newAddCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.newSession()
			contact, ok := s.Create(cmd.Context(), flags.draft)
			if !ok {
				return errors.New("contact was not created")
			}
			return printContact(cmd.OutOrStdout(), contact)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change some attributes of a contact and keep the others",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.api.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := a.newSession()
			contact, ok := s.Update(cmd.Context(), current.ID, flags.overlay(cmd.Flags(), current.Draft))
			if !ok {
				return errors.New("contact was not updated")
			}
			return printContact(cmd.OutOrStdout(), contact)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.newSession().Delete(cmd.Context(), args[0]) {
				return errors.New("contact was not deleted")
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return err
		},
	}
}

func newBrowseCmd(a *app) *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through the contacts interactively",
		Long:  "Page through the contacts interactively. When the output is not a terminal the first page is printed instead.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			var applyErr error
			s.Apply(func(l presenter.List) presenter.List {
				var next presenter.List
				next, applyErr = opts.apply(l)
				return next
			})
			if applyErr != nil {
				return applyErr
			}
			if !tui.IsTerminal(cmd.OutOrStdout()) {
				return tui.Render(cmd.OutOrStdout(), s.List())
			}
			return tui.Run(tui.NewModel(cmd.Context(), s))
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func printContact(w io.Writer, c model.Contact) error {
	_, err := fmt.Fprintf(w, "%-10s %s\n", model.FieldID, c.ID)
	if err != nil {
		return err
	}
	for _, field := range model.Fields {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", field, c.Field(field)); err != nil {
			return err
		}
	}
	return nil
}
