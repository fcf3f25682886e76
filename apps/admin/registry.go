package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

func (cli *commandLine) addSchool(code, name, city string) error {
	c, err := cli.container()
	if err != nil {
		return err
	}
	sch, err := c.Schools.Create(context.Background(), school.NewSchool{Code: code, Name: name, City: city})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "school %s created: %s\n", sch.Code, sch.ID)
	return nil
}

func (cli *commandLine) addStudent(schoolCode, given, family, class string) error {
	c, err := cli.container()
	if err != nil {
		return err
	}
	ctx := context.Background()
	sch, err := c.Schools.GetByCode(ctx, schoolCode)
	if err != nil {
		return err
	}
	std, err := c.Schools.AddStudent(ctx, sch.ID, school.NewStudent{GivenName: given, FamilyName: family, ClassName: class})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "student %s enrolled at %s: %s\n", std.FullName(), sch.Code, std.ID)
	return nil
}

func (cli *commandLine) findPerson(search, email, phone string) error {
	c, err := cli.container()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var people []person.Person
	if email != "" || phone != "" {
		p, found, err := c.Registry.FindByContact(ctx, email, phone)
		if err != nil {
			return err
		}
		if found {
			people = append(people, p)
		}
	} else if people, err = c.Registry.Search(ctx, search); err != nil {
		return err
	}

	if len(people) == 0 {
		fmt.Fprintln(cli.out, "no match")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GLOBAL ID\tLOCAL ID\tNAME\tEMAIL\tPHONE")
	for _, p := range people {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.GlobalID, p.LocalID, p.FullName(), p.Email, p.Phone)
	}
	return w.Flush()
}

func (cli *commandLine) summary(globalID string) error {
	c, err := cli.container()
	if err != nil {
		return err
	}
	view, err := c.Links.Aggregate(context.Background(), globalID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
